package repository

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"gorm.io/gorm"

	"github.com/d60-Lab/gossip-server/internal/model"
)

func seedBenchUsers(b *testing.B, db *gorm.DB, n int) []model.User {
	b.Helper()
	users := make([]model.User, n)
	for i := range users {
		id := fmt.Sprintf("u%05d", i)
		users[i] = model.User{
			ID: id, Username: id, Email: id + "@example.com",
			DisplayName: id, PasswordHash: "p", Status: model.UserStatusActive,
		}
	}
	if err := db.CreateInBatches(users, 1000).Error; err != nil {
		b.Fatalf("seed users: %v", err)
	}
	return users
}

func BenchmarkFollowWrite_And_FanRedundancy(b *testing.B) {
	db := setupRepoDB(b)
	followRepo := NewFollowRepository(db)
	fanRepo := NewFanRepository(db)
	ctx := context.Background()

	users := seedBenchUsers(b, db, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		from := users[rand.Intn(len(users))].ID
		to := users[rand.Intn(len(users))].ID
		if from == to {
			continue
		}
		_ = followRepo.Create(ctx, from, to)
		_ = fanRepo.Create(ctx, to, from)
	}
}

func BenchmarkQueryFansAndConnections(b *testing.B) {
	db := setupRepoDB(b)
	followRepo := NewFollowRepository(db)
	fanRepo := NewFanRepository(db)
	ctx := context.Background()

	// u0 有 N 个粉丝，其中一半是互相关注
	const N = 5000
	users := seedBenchUsers(b, db, N+1)
	u0 := users[0].ID
	for i := 1; i <= N; i++ {
		uid := users[i].ID
		_ = followRepo.Create(ctx, uid, u0)
		_ = fanRepo.Create(ctx, u0, uid)
		if i%2 == 0 {
			_ = followRepo.Create(ctx, u0, uid)
			_ = fanRepo.Create(ctx, uid, u0)
		}
	}

	b.ResetTimer()
	b.Run("ListFans", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = fanRepo.ListFans(ctx, u0, 0, 50)
		}
	})

	b.Run("ListConnected", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_, _ = followRepo.ListConnected(ctx, u0)
		}
	})
}

func BenchmarkSnapshotAmongBatch(b *testing.B) {
	db := setupRepoDB(b)
	followRepo := NewFollowRepository(db)
	requestRepo := NewFollowRequestRepository(db)
	ctx := context.Background()

	users := seedBenchUsers(b, db, 201)
	viewer := users[0].ID
	ids := make([]string, 0, 20)
	for i := 1; i <= 200; i++ {
		uid := users[i].ID
		switch i % 4 {
		case 0:
			_ = followRepo.Create(ctx, viewer, uid)
		case 1:
			_ = followRepo.Create(ctx, uid, viewer)
		case 2:
			_, _ = requestRepo.Create(ctx, viewer, uid)
		}
		if len(ids) < cap(ids) {
			ids = append(ids, uid)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = followRepo.FolloweesAmong(ctx, viewer, ids)
		_, _ = followRepo.FollowersAmong(ctx, viewer, ids)
		_, _ = requestRepo.SentAmong(ctx, viewer, ids)
		_, _ = requestRepo.ReceivedAmong(ctx, viewer, ids)
	}
}
