package xtier

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

// 层类型名称，用于 Settings.Order
const (
	KindRedis  = "redis"
	KindFile   = "file"
	KindMemory = "memory"
)

// Settings 后端层配置，可由 xconf 加载
//
//	tiers:
//	  order: [redis, file, memory]
//	  op_timeout: 200ms
//	  redis:
//	    addrs: ["127.0.0.1:6379"]
//	    prefix: "memo:"
//	  file:
//	    dir: /var/cache/memo
//	  memory:
//	    max_cost: 67108864
type Settings struct {
	// Order 层的读写顺序，为空表示不启用后端层
	Order     []string       `koanf:"order"`
	OpTimeout time.Duration  `koanf:"op_timeout"`
	Redis     RedisSettings  `koanf:"redis"`
	File      FileSettings   `koanf:"file"`
	Memory    MemorySettings `koanf:"memory"`
}

// RedisSettings Redis 层配置
type RedisSettings struct {
	Addrs        []string      `koanf:"addrs"`
	Username     string        `koanf:"username"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	Prefix       string        `koanf:"prefix"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// FileSettings 文件层配置
type FileSettings struct {
	Dir string `koanf:"dir"`
}

// MemorySettings 内存层配置
type MemorySettings struct {
	NumCounters int64 `koanf:"num_counters"`
	MaxCost     int64 `koanf:"max_cost"`
}

// Build 按配置创建 Chain。
//
// 没有配置任何层时返回 nil Chain（引擎按无后端运行）。
// 返回的 closer 关闭 Build 自己创建的 Redis 客户端和内存层。
func (s Settings) Build(logger xlog.Logger, opts ...ChainOption) (*Chain, func() error, error) {
	noop := func() error { return nil }
	if len(s.Order) == 0 {
		return nil, noop, nil
	}

	var (
		backends []Backend
		closers  []func() error
	)
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	for _, kind := range s.Order {
		b, closer, err := s.backend(strings.ToLower(strings.TrimSpace(kind)))
		if err != nil {
			_ = closeAll()
			return nil, noop, err
		}
		backends = append(backends, b)
		if closer != nil {
			closers = append(closers, closer)
		}
	}

	if logger != nil {
		opts = append([]ChainOption{WithLogger(logger)}, opts...)
	}
	if s.OpTimeout > 0 {
		opts = append(opts, WithOpTimeout(s.OpTimeout))
	}
	chain, err := NewChain(backends, opts...)
	if err != nil {
		_ = closeAll()
		return nil, noop, err
	}
	return chain, closeAll, nil
}

func (s Settings) backend(kind string) (Backend, func() error, error) {
	switch kind {
	case KindRedis:
		if len(s.Redis.Addrs) == 0 {
			return nil, nil, ErrNoAddrs
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:        s.Redis.Addrs,
			Username:     s.Redis.Username,
			Password:     s.Redis.Password,
			DB:           s.Redis.DB,
			DialTimeout:  s.Redis.DialTimeout,
			ReadTimeout:  s.Redis.ReadTimeout,
			WriteTimeout: s.Redis.WriteTimeout,
		})
		var opts []RedisOption
		if s.Redis.Prefix != "" {
			opts = append(opts, WithRedisPrefix(s.Redis.Prefix))
		}
		r, err := NewRedis(client, opts...)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return r, client.Close, nil
	case KindFile:
		f, err := NewFile(s.File.Dir)
		if err != nil {
			return nil, nil, err
		}
		return f, nil, nil
	case KindMemory:
		m, err := NewMemory(
			WithMemoryNumCounters(s.Memory.NumCounters),
			WithMemoryMaxCost(s.Memory.MaxCost),
		)
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownTier, kind)
	}
}
