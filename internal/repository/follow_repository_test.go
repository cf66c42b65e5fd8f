package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/gossip-server/internal/model"
)

func setupRepoDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(
		&model.User{}, &model.Follow{}, &model.FollowRequest{}, &model.Fan{},
		&model.Notification{},
	); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func seedRepoUser(tb testing.TB, db *gorm.DB, username string) *model.User {
	tb.Helper()
	u := &model.User{
		ID:           username + "-id",
		Email:        username + "@example.com",
		Username:     username,
		DisplayName:  username,
		PasswordHash: "x",
		Status:       model.UserStatusActive,
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func TestFollowPairUnique(t *testing.T) {
	ctx := context.Background()
	db := setupRepoDB(t)
	repo := NewFollowRepository(db)
	a := seedRepoUser(t, db, "a")
	b := seedRepoUser(t, db, "b")

	require.NoError(t, repo.Create(ctx, a.ID, b.ID))
	err := repo.Create(ctx, a.ID, b.ID)
	require.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	// 反方向是另一条边
	require.NoError(t, repo.Create(ctx, b.ID, a.ID))

	cnt, err := repo.CountBetween(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, cnt)
}

func TestFollowDeleteReportsOutcome(t *testing.T) {
	ctx := context.Background()
	db := setupRepoDB(t)
	repo := NewFollowRepository(db)
	a := seedRepoUser(t, db, "a")
	b := seedRepoUser(t, db, "b")

	deleted, err := repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.False(t, deleted)

	require.NoError(t, repo.Create(ctx, a.ID, b.ID))
	deleted, err = repo.Delete(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	exists, err := repo.Exists(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestListConnectedMutualOnly(t *testing.T) {
	ctx := context.Background()
	db := setupRepoDB(t)
	repo := NewFollowRepository(db)
	me := seedRepoUser(t, db, "me")
	zoe := seedRepoUser(t, db, "zoe")
	amy := seedRepoUser(t, db, "amy")
	oneway := seedRepoUser(t, db, "oneway")

	for _, other := range []*model.User{zoe, amy} {
		require.NoError(t, repo.Create(ctx, me.ID, other.ID))
		require.NoError(t, repo.Create(ctx, other.ID, me.ID))
	}
	require.NoError(t, repo.Create(ctx, me.ID, oneway.ID))

	connected, err := repo.ListConnected(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, connected, 2)
	// 按用户名升序
	require.Equal(t, "amy", connected[0].Username)
	require.Equal(t, "zoe", connected[1].Username)
}

func TestAmongBatches(t *testing.T) {
	ctx := context.Background()
	db := setupRepoDB(t)
	repo := NewFollowRepository(db)
	me := seedRepoUser(t, db, "me")

	ids := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		u := seedRepoUser(t, db, fmt.Sprintf("u%d", i))
		ids = append(ids, u.ID)
	}
	require.NoError(t, repo.Create(ctx, me.ID, ids[0]))
	require.NoError(t, repo.Create(ctx, ids[1], me.ID))

	outgoing, err := repo.FolloweesAmong(ctx, me.ID, ids)
	require.NoError(t, err)
	require.True(t, outgoing[ids[0]])
	require.False(t, outgoing[ids[1]])

	incoming, err := repo.FollowersAmong(ctx, me.ID, ids)
	require.NoError(t, err)
	require.True(t, incoming[ids[1]])
	require.False(t, incoming[ids[0]])
}
