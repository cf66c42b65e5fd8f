package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/gossip-server/config"
	"github.com/d60-Lab/gossip-server/internal/model"
	"github.com/d60-Lab/gossip-server/internal/repository"
)

const bcryptCost = 12

// SafeUser 剥掉敏感字段的用户视图
type SafeUser struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RegisterInput struct {
	Email       string
	Username    string
	DisplayName string
	Password    string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*SafeUser, error)
	VerifyOtp(ctx context.Context, email, code string) (*SafeUser, *AuthTokens, error)
	// ResendOtp 不暴露邮箱是否存在
	ResendOtp(ctx context.Context, email string) error
	Login(ctx context.Context, identifier, password, deviceInfo, ipAddress string) (*SafeUser, *AuthTokens, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID string) (*SafeUser, error)
	UsernameAvailable(ctx context.Context, username string) (bool, error)
	// VerifyAccessToken 校验 access token 并返回 userID（认证中间件入口）
	VerifyAccessToken(token string) (string, error)
}

type authService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	otpRepo     repository.OtpRepository
	sessionRepo repository.SessionRepository
	email       EmailSender
	jwtCfg      config.JWTConfig
	otpCfg      config.OTPConfig
}

func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	otpRepo repository.OtpRepository,
	sessionRepo repository.SessionRepository,
	email EmailSender,
	jwtCfg config.JWTConfig,
	otpCfg config.OTPConfig,
) AuthService {
	return &authService{
		db:          db,
		userRepo:    userRepo,
		otpRepo:     otpRepo,
		sessionRepo: sessionRepo,
		email:       email,
		jwtCfg:      jwtCfg,
		otpCfg:      otpCfg,
	}
}

func toSafeUser(u *model.User) *SafeUser {
	return &SafeUser{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
	}
}

func generateOtp() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand 不可用时整个进程都有更大的问题
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000)
}

type tokenClaims struct {
	UserID    string `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (s *authService) signToken(userID, tokenType, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *authService) parseToken(token, tokenType, secret string) (string, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid || claims.TokenType != tokenType {
		return "", unauthorized("invalid token")
	}
	return claims.UserID, nil
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*SafeUser, error) {
	if existing, err := s.userRepo.GetByEmail(ctx, input.Email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, conflict("email already registered")
	}
	if existing, err := s.userRepo.GetByUsername(ctx, input.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, conflict("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        input.Email,
		Username:     strings.ToLower(input.Username),
		DisplayName:  input.DisplayName,
		PasswordHash: string(hash),
		Status:       model.UserStatusPendingVerification,
	}
	code := generateOtp()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txUsers := repository.NewUserRepository(tx)
		txOtps := repository.NewOtpRepository(tx)

		if err := txUsers.Create(ctx, user); err != nil {
			return asConflict(err, "email or username already taken")
		}
		return txOtps.Create(ctx, user.ID, code, model.OtpTypeEmailVerification,
			time.Now().Add(s.otpCfg.Expiry))
	})
	if err != nil {
		return nil, err
	}

	if err := s.email.SendVerificationEmail(ctx, user.Email, code, user.DisplayName); err != nil {
		return nil, err
	}
	return toSafeUser(user), nil
}

func (s *authService) VerifyOtp(ctx context.Context, email, code string) (*SafeUser, *AuthTokens, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, notFound("user not found")
	}
	if user.Status == model.UserStatusActive {
		return nil, nil, conflict("email already verified")
	}
	if user.Status == model.UserStatusSuspended {
		return nil, nil, forbidden("account suspended")
	}

	otp, err := s.otpRepo.FindValid(ctx, user.ID, code, model.OtpTypeEmailVerification, time.Now())
	if err != nil {
		return nil, nil, err
	}
	if otp == nil {
		return nil, nil, unauthorized("invalid or expired verification code")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txUsers := repository.NewUserRepository(tx)
		txOtps := repository.NewOtpRepository(tx)

		if err := txUsers.UpdateStatus(ctx, user.ID, model.UserStatusActive); err != nil {
			return err
		}
		return txOtps.MarkUsed(ctx, otp.ID, time.Now())
	})
	if err != nil {
		return nil, nil, err
	}
	user.Status = model.UserStatusActive

	tokens, err := s.createSession(ctx, user.ID, "", "")
	if err != nil {
		return nil, nil, err
	}
	return toSafeUser(user), tokens, nil
}

func (s *authService) ResendOtp(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		// 静默成功，不暴露邮箱是否注册过
		return nil
	}
	if user.Status == model.UserStatusActive {
		return conflict("email already verified")
	}
	if user.Status == model.UserStatusSuspended {
		return forbidden("account suspended")
	}

	if err := s.otpRepo.InvalidateActive(ctx, user.ID, model.OtpTypeEmailVerification, time.Now()); err != nil {
		return err
	}
	code := generateOtp()
	if err := s.otpRepo.Create(ctx, user.ID, code, model.OtpTypeEmailVerification,
		time.Now().Add(s.otpCfg.Expiry)); err != nil {
		return err
	}
	return s.email.SendVerificationEmail(ctx, user.Email, code, user.DisplayName)
}

func (s *authService) Login(ctx context.Context, identifier, password, deviceInfo, ipAddress string) (*SafeUser, *AuthTokens, error) {
	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, unauthorized("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, unauthorized("invalid credentials")
	}
	if user.Status == model.UserStatusPendingVerification {
		return nil, nil, forbidden("please verify your email before logging in")
	}
	if user.Status == model.UserStatusSuspended {
		return nil, nil, forbidden("account suspended")
	}

	tokens, err := s.createSession(ctx, user.ID, deviceInfo, ipAddress)
	if err != nil {
		return nil, nil, err
	}
	return toSafeUser(user), tokens, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	userID, err := s.parseToken(refreshToken, "refresh", s.jwtCfg.RefreshSecret)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if session == nil || session.ExpiresAt.Before(time.Now()) {
		return nil, unauthorized("session expired or invalid")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != model.UserStatusActive {
		return nil, forbidden("account not active")
	}

	// 刷新时轮换 refresh token
	accessToken, err := s.signToken(userID, "access", s.jwtCfg.Secret, s.jwtCfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	newRefreshToken, err := s.signToken(userID, "refresh", s.jwtCfg.RefreshSecret, s.jwtCfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Rotate(ctx, session.ID, newRefreshToken,
		time.Now().Add(s.jwtCfg.RefreshTokenTTL)); err != nil {
		return nil, err
	}
	return &AuthTokens{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	return s.sessionRepo.DeleteByRefreshToken(ctx, refreshToken)
}

func (s *authService) Me(ctx context.Context, userID string) (*SafeUser, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound("user not found")
	}
	return toSafeUser(user), nil
}

func (s *authService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return user == nil, nil
}

func (s *authService) VerifyAccessToken(token string) (string, error) {
	return s.parseToken(token, "access", s.jwtCfg.Secret)
}

func (s *authService) createSession(ctx context.Context, userID, deviceInfo, ipAddress string) (*AuthTokens, error) {
	accessToken, err := s.signToken(userID, "access", s.jwtCfg.Secret, s.jwtCfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.signToken(userID, "refresh", s.jwtCfg.RefreshSecret, s.jwtCfg.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	session := &model.Session{
		UserID:       userID,
		RefreshToken: refreshToken,
		DeviceInfo:   deviceInfo,
		IPAddress:    ipAddress,
		ExpiresAt:    time.Now().Add(s.jwtCfg.RefreshTokenTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return &AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
