package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/gossip-server/internal/model"
	"github.com/d60-Lab/gossip-server/internal/repository"
)

// setupTestDB 内存库，唯一键冲突翻译与线上配置保持一致
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库每个连接各是一份数据，锁死在单连接上
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.Follow{}, &model.FollowRequest{}, &model.Fan{},
		&model.Notification{}, &model.OtpCode{}, &model.Session{}, &model.RecentSearch{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username, status string) *model.User {
	t.Helper()
	u := &model.User{
		ID:           uuid.New().String(),
		Email:        username + "@example.com",
		Username:     username,
		DisplayName:  username,
		PasswordHash: "x",
		Status:       status,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedActiveUser(t *testing.T, db *gorm.DB, username string) *model.User {
	return seedUser(t, db, username, model.UserStatusActive)
}

// relFixture 连接工作流测试用的完整装配
type relFixture struct {
	db       *gorm.DB
	users    repository.UserRepository
	follows  repository.FollowRepository
	requests repository.FollowRequestRepository
	notifs   repository.NotificationRepository
	fans     repository.FanRepository
	svc      RelationshipService
}

func newRelFixture(t *testing.T, replicator *FanReplicator, connCache *ConnectionCache) *relFixture {
	t.Helper()
	db := setupTestDB(t)
	f := &relFixture{
		db:       db,
		users:    repository.NewUserRepository(db),
		follows:  repository.NewFollowRepository(db),
		requests: repository.NewFollowRequestRepository(db),
		notifs:   repository.NewNotificationRepository(db),
		fans:     repository.NewFanRepository(db),
	}
	f.svc = NewRelationshipService(db, f.users, f.follows, f.requests, f.notifs, f.fans, replicator, connCache)
	return f
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	got, ok := KindOf(err)
	require.True(t, ok, "expected business error, got %v", err)
	require.Equal(t, kind, got)
}
