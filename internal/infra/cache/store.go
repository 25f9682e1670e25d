package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Store はRedisの読み取りキャッシュ。真実はあくまでDB側。
// nilレシーバでも安全に動く（Redis未設定なら全部miss扱い）。
type Store struct {
	rdb *redis.Client
}

func New(addr string) *Store {
	if addr == "" {
		return nil
	}
	return &Store{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.rdb.Close()
}

// 同じ(user, key)で作成済みの注文IDを返す。missは 0, false。
func (s *Store) IdemOrderID(ctx context.Context, userID int64, key string) (int64, bool) {
	if s == nil {
		return 0, false
	}
	v, err := s.rdb.Get(ctx, fmt.Sprintf(keyIdemOrderCreate, userID, key)).Result()
	if err != nil {
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *Store) SetIdemOrderID(ctx context.Context, userID int64, key string, orderID int64) {
	if s == nil {
		return
	}
	s.rdb.Set(ctx, fmt.Sprintf(keyIdemOrderCreate, userID, key), strconv.FormatInt(orderID, 10), ttlIdempotency)
}

func (s *Store) OrderStatus(ctx context.Context, userID, orderID int64) (string, bool) {
	if s == nil {
		return "", false
	}
	v, err := s.rdb.Get(ctx, fmt.Sprintf(keyOrderStatus, userID, orderID)).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (s *Store) SetOrderStatus(ctx context.Context, userID, orderID int64, status string) {
	if s == nil {
		return
	}
	s.rdb.Set(ctx, fmt.Sprintf(keyOrderStatus, userID, orderID), status, ttlStatusCache)
}

func (s *Store) InvalidateOrderStatus(ctx context.Context, userID, orderID int64) {
	if s == nil {
		return
	}
	s.rdb.Del(ctx, fmt.Sprintf(keyOrderStatus, userID, orderID))
}
