package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hitoshi/oralarith/internal/model"
	"github.com/redis/go-redis/v9"
)

const profileCacheKeyPrefix = "profile:"

// RedisProfileCache はRedisを使用したプロフィールキャッシュ。
//
// キー:
//   - profile:<uid>     プロフィールのJSON（TTL付き）
//   - profile:<uid>:gen 世代番号。書き込みのたびにInvalidateで加算する（TTLなし）
type RedisProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProfileCache はRedisProfileCacheを生成する。
func NewRedisProfileCache(client *redis.Client, ttl time.Duration) *RedisProfileCache {
	return &RedisProfileCache{client: client, ttl: ttl}
}

func profileCacheKey(userID int64) string {
	return profileCacheKeyPrefix + strconv.FormatInt(userID, 10)
}

func profileGenKey(userID int64) string {
	return profileCacheKey(userID) + ":gen"
}

// stringGetter は*redis.Clientと*redis.Txの共通部分。
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// readGeneration は世代番号を読む。未設定は0。
func readGeneration(ctx context.Context, c stringGetter, key string) (int64, error) {
	gen, err := c.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read profile generation: %w", err)
	}
	return gen, nil
}

// Get はキャッシュ済みプロフィールを返す。未キャッシュの場合はnilを返す。
func (c *RedisProfileCache) Get(ctx context.Context, userID int64) (*model.UserProfile, error) {
	data, err := c.client.Get(ctx, profileCacheKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached profile: %w", err)
	}

	var p model.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &p, nil
}

// Generation は現在の世代番号を返す。DB読み取りの前に呼ぶ。
func (c *RedisProfileCache) Generation(ctx context.Context, userID int64) (int64, error) {
	return readGeneration(ctx, c.client, profileGenKey(userID))
}

// SetIfGeneration は世代番号がgenのままの場合に限りプロフィールをTTL付きでキャッシュする。
// 世代番号の確認と書き込みはWATCH/MULTIで不可分に行う。
// 読み取り後に書き込みが入っていた場合は何もせずfalseを返す。
func (c *RedisProfileCache) SetIfGeneration(ctx context.Context, p *model.UserProfile, gen int64) (bool, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return false, fmt.Errorf("failed to encode profile: %w", err)
	}

	genKey := profileGenKey(p.UserID)
	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := readGeneration(ctx, tx, genKey)
		if err != nil {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, profileCacheKey(p.UserID), data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)

	// WATCH中に世代番号が変わった
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to cache profile: %w", err)
	}
	return stored, nil
}

// Invalidate は世代番号を進めてからキャッシュを破棄する。
// 進行中の読み取りが古いプロフィールを書き戻すのをSetIfGenerationで防ぐ。
func (c *RedisProfileCache) Invalidate(ctx context.Context, userID int64) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, profileGenKey(userID))
		pipe.Del(ctx, profileCacheKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate cached profile: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProfileCache = (*RedisProfileCache)(nil)
