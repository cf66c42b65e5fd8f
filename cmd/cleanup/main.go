package main

import (
	"context"
	"flag"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/gossip-server/config"
	"github.com/d60-Lab/gossip-server/internal/repository"
	"github.com/d60-Lab/gossip-server/pkg/database"
	"github.com/d60-Lab/gossip-server/pkg/logger"
)

func must[T any](v T, err error) T { if err != nil { panic(err) }; return v }

// 清理长期未处理的关注请求及其挂载的通知，顺带回收过期会话。
// 建议按天跑一次（cron / k8s CronJob）。
func main() {
	maxAgeDays := flag.Int("max-age-days", 30, "待处理关注请求的保留天数")
	dryRun := flag.Bool("dry-run", false, "只统计不删除")
	flag.Parse()

	cfg := must(config.Load())
	if err := logger.Init(cfg); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db := must(database.InitDB(cfg))
	ctx := context.Background()

	requestRepo := repository.NewFollowRequestRepository(db)
	cutoff := time.Now().AddDate(0, 0, -*maxAgeDays)
	stale := must(requestRepo.ListOlderThan(ctx, cutoff))
	logger.Info("stale follow requests found",
		zap.Int("count", len(stale)),
		zap.Time("cutoff", cutoff))

	removed := 0
	if !*dryRun {
		for _, req := range stale {
			err := db.Transaction(func(tx *gorm.DB) error {
				deleted, err := repository.NewFollowRequestRepository(tx).DeleteByID(ctx, req.ID)
				if err != nil {
					return err
				}
				if !deleted {
					// 扫描到删除之间被用户处理掉了，跳过
					return nil
				}
				removed++
				return repository.NewNotificationRepository(tx).DeleteByReference(ctx, req.ID)
			})
			if err != nil {
				logger.Error("failed to remove stale request",
					zap.String("request_id", req.ID),
					zap.Error(err))
			}
		}
	}

	sessions := int64(0)
	if !*dryRun {
		sessions = must(repository.NewSessionRepository(db).DeleteExpired(ctx, time.Now()))
	}

	logger.Info("cleanup done",
		zap.Int("requests_removed", removed),
		zap.Int64("sessions_removed", sessions),
		zap.Bool("dry_run", *dryRun))
}
