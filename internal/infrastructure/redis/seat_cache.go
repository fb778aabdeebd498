package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-show-seat-booking/internal/domain/seat"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// SeatCacheInterface は座席数キャッシュの操作を定義する
type SeatCacheInterface interface {
	GetCounts(ctx context.Context, showID string) (seat.Counts, error)
	SetCounts(ctx context.Context, showID string, counts seat.Counts, ttl time.Duration) error
	Invalidate(ctx context.Context, showID string) error
}

var _ SeatCacheInterface = (*SeatCache)(nil)

// SeatCache は公演ごとの状態別座席数のキャッシュを管理する
// 座席マップの読み取り射影を軽くするためのもので、正は常にストア側にある
type SeatCache struct {
	client *redis.Client
}

// NewSeatCache は新しいSeatCacheインスタンスを作成する
func NewSeatCache(client *redis.Client) *SeatCache {
	return &SeatCache{client: client}
}

// GetCounts は公演の状態別座席数をキャッシュから取得する
func (c *SeatCache) GetCounts(ctx context.Context, showID string) (seat.Counts, error) {
	key := c.countsKey(showID)
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return seat.Counts{}, ErrCacheMiss
		}
		return seat.Counts{}, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	var counts seat.Counts
	if err := json.Unmarshal(val, &counts); err != nil {
		return seat.Counts{}, fmt.Errorf("キャッシュ復元に失敗: %w", err)
	}
	return counts, nil
}

// SetCounts は公演の状態別座席数をキャッシュに保存する
func (c *SeatCache) SetCounts(ctx context.Context, showID string, counts seat.Counts, ttl time.Duration) error {
	val, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("キャッシュ変換に失敗: %w", err)
	}
	if err := c.client.Set(ctx, c.countsKey(showID), val, ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は公演のキャッシュを無効化する
func (c *SeatCache) Invalidate(ctx context.Context, showID string) error {
	if err := c.client.Del(ctx, c.countsKey(showID)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *SeatCache) countsKey(showID string) string {
	return fmt.Sprintf("seats:counts:%s", showID)
}
