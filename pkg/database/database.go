package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/gossip-server/config"
	"github.com/d60-Lab/gossip-server/internal/model"
)

// InitDB 按配置打开数据库并迁移表结构。
// TranslateError 开启后，唯一键冲突统一表现为 gorm.ErrDuplicatedKey，
// 上层据此把并发重复写入当作业务冲突处理。
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	gc := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.Database.DSN), gc)
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.Database.DSN), gc)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Follow{},
		&model.FollowRequest{},
		&model.Fan{},
		&model.Notification{},
		&model.OtpCode{},
		&model.Session{},
		&model.RecentSearch{},
	)
}
