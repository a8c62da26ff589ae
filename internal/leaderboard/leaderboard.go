// Package leaderboard maintains global rankings in Redis sorted sets:
// longest survival and lifetime tag count.
package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	survivalKey = "leaderboard:survival"
	tagsKey     = "leaderboard:tags"
)

type Entry struct {
	UserID string  `json:"userId"`
	Score  float64 `json:"score"`
	Rank   int64   `json:"rank"`
}

type Board struct {
	client *redis.Client
}

func New(client *redis.Client) *Board {
	return &Board{client: client}
}

// RecordSurvival keeps the user's best survival in the ranking. ZAdd
// with GT only moves scores up, so the board is a ratchet like the
// stats it mirrors.
func (b *Board) RecordSurvival(ctx context.Context, userID string, survival time.Duration) error {
	err := b.client.ZAddGT(ctx, survivalKey, redis.Z{
		Score:  survival.Seconds(),
		Member: userID,
	}).Err()
	if err != nil {
		return fmt.Errorf("recording survival for %s: %w", userID, err)
	}
	return nil
}

// AddTags increments the user's lifetime tag count.
func (b *Board) AddTags(ctx context.Context, userID string, n int) error {
	if n == 0 {
		return nil
	}
	if err := b.client.ZIncrBy(ctx, tagsKey, float64(n), userID).Err(); err != nil {
		return fmt.Errorf("adding tags for %s: %w", userID, err)
	}
	return nil
}

// TopSurvivors returns the n best survival entries, rank 0 first.
func (b *Board) TopSurvivors(ctx context.Context, n int64) ([]Entry, error) {
	return b.top(ctx, survivalKey, n)
}

// TopTaggers returns the n highest lifetime tag counts, rank 0 first.
func (b *Board) TopTaggers(ctx context.Context, n int64) ([]Entry, error) {
	return b.top(ctx, tagsKey, n)
}

func (b *Board) top(ctx context.Context, key string, n int64) ([]Entry, error) {
	zs, err := b.client.ZRevRangeWithScores(ctx, key, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	entries := make([]Entry, 0, len(zs))
	for i, z := range zs {
		id, _ := z.Member.(string)
		entries = append(entries, Entry{UserID: id, Score: z.Score, Rank: int64(i)})
	}
	return entries, nil
}

// SurvivalRank returns the user's rank on the survival board, 0 being
// first.
func (b *Board) SurvivalRank(ctx context.Context, userID string) (int64, error) {
	rank, err := b.client.ZRevRank(ctx, survivalKey, userID).Result()
	if err != nil {
		return 0, fmt.Errorf("ranking %s: %w", userID, err)
	}
	return rank, nil
}
