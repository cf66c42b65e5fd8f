package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/d60-Lab/gossip-server/pkg/logger"
)

// EmailSender 验证码投递。开发环境用日志实现，验证码直接打到日志里。
type EmailSender interface {
	SendVerificationEmail(ctx context.Context, email, code, displayName string) error
}

type logEmailSender struct{}

func NewLogEmailSender() EmailSender { return &logEmailSender{} }

func (logEmailSender) SendVerificationEmail(_ context.Context, email, code, displayName string) error {
	logger.Info("verification email",
		zap.String("email", email),
		zap.String("display_name", displayName),
		zap.String("otp", code))
	return nil
}
