package xtier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix    = "xmemo:"
	defaultRedisScanCount = 500
)

// RedisOption Redis 层选项
type RedisOption func(*Redis)

// WithRedisName 设置层名称，默认 "redis"
func WithRedisName(name string) RedisOption {
	return func(r *Redis) {
		if name != "" {
			r.name = name
		}
	}
}

// WithRedisPrefix 设置键前缀，默认 "xmemo:"
//
// 空前缀允许读写，但 Clear 会返回 ErrEmptyPrefix。
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// WithRedisScanCount 设置 Clear 时每批 SCAN 的数量
func WithRedisScanCount(n int64) RedisOption {
	return func(r *Redis) {
		if n > 0 {
			r.scanCount = n
		}
	}
}

// Redis 基于 go-redis 的后端层，客户端生命周期由调用方管理
type Redis struct {
	client    redis.UniversalClient
	name      string
	prefix    string
	scanCount int64
}

// NewRedis 创建 Redis 层
func NewRedis(client redis.UniversalClient, opts ...RedisOption) (*Redis, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	r := &Redis{
		client:    client,
		name:      "redis",
		prefix:    defaultRedisPrefix,
		scanCount: defaultRedisScanCount,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Name 返回层名称
func (r *Redis) Name() string { return r.name }

// Client 返回底层客户端
func (r *Redis) Client() redis.UniversalClient { return r.client }

// Get 读取带前缀的 key，redis.Nil 视为未命中
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, r.unavailable("get", err)
	}
	return b, true, nil
}

// Set 以 ttl 写入带前缀的 key；ttl <= 0 时不写入
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return r.unavailable("set", err)
	}
	return nil
}

// Delete 删除带前缀的 key
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return r.unavailable("delete", err)
	}
	return nil
}

// Clear 用 SCAN 分批删除前缀下的键
func (r *Redis) Clear(ctx context.Context) error {
	if r.prefix == "" {
		return ErrEmptyPrefix
	}
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", r.scanCount).Result()
		if err != nil {
			return r.unavailable("scan", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return r.unavailable("clear", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ping 检查连接
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return r.unavailable("ping", err)
	}
	return nil
}

func (r *Redis) unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrBackendUnavailable, r.name, op, err)
}

var (
	_ Backend = (*Redis)(nil)
	_ Pinger  = (*Redis)(nil)
)
