package xtier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/omeyang/xmemo/internal/tieropt"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/resilience/xbreaker"
	"github.com/omeyang/xmemo/pkg/resilience/xretry"
)

const defaultOpTimeout = 500 * time.Millisecond

// ChainOption Chain 选项
type ChainOption func(*chainOptions)

type chainOptions struct {
	logger        xlog.Logger
	retryer       *xretry.Retryer
	breakerOpts   []xbreaker.BreakerOption
	opTimeout     time.Duration
	slowThreshold time.Duration
}

// WithLogger 设置日志，默认丢弃
func WithLogger(l xlog.Logger) ChainOption {
	return func(o *chainOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRetryer 设置写操作的重试执行器，默认 3 次、10ms 起步的指数退避
func WithRetryer(r *xretry.Retryer) ChainOption {
	return func(o *chainOptions) {
		if r != nil {
			o.retryer = r
		}
	}
}

// WithBreakerOptions 追加每一层熔断器的选项
func WithBreakerOptions(opts ...xbreaker.BreakerOption) ChainOption {
	return func(o *chainOptions) {
		o.breakerOpts = append(o.breakerOpts, opts...)
	}
}

// WithOpTimeout 设置单次后端操作超时，默认 500ms，0 表示不设超时
func WithOpTimeout(d time.Duration) ChainOption {
	return func(o *chainOptions) {
		if d >= 0 {
			o.opTimeout = d
		}
	}
}

// WithSlowThreshold 设置慢操作日志阈值，默认 100ms，0 表示不记录
func WithSlowThreshold(d time.Duration) ChainOption {
	return func(o *chainOptions) {
		if d >= 0 {
			o.slowThreshold = d
		}
	}
}

type tier struct {
	backend  Backend
	breaker  *xbreaker.Breaker
	counters tieropt.Counters
}

type getResult struct {
	value []byte
	hit   bool
}

// Chain 按顺序组合多个后端层，并发安全。
//
// Chain 的方法不返回后端错误：读失败视为未命中，写失败降级到下一层。
type Chain struct {
	tiers []*tier
	opts  chainOptions
}

// TierStats 单层统计
type TierStats struct {
	Name  string
	State string
	tieropt.Snapshot
}

// NewChain 创建 Chain，backends 的顺序即读写顺序
func NewChain(backends []Backend, opts ...ChainOption) (*Chain, error) {
	o := chainOptions{
		logger: xlog.Discard(),
		retryer: xretry.NewRetryer(
			xretry.WithRetryPolicy(xretry.NewFixedRetry(3)),
			xretry.WithBackoffPolicy(xretry.NewExponentialBackoff(
				xretry.WithInitialDelay(10*time.Millisecond),
				xretry.WithMaxDelay(200*time.Millisecond),
			)),
		),
		opTimeout:     defaultOpTimeout,
		slowThreshold: tieropt.DefaultSlowThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.With(xlog.Component("xtier"))

	c := &Chain{opts: o}
	seen := make(map[string]struct{}, len(backends))
	for i, b := range backends {
		if b == nil {
			return nil, fmt.Errorf("%w: index %d", ErrNilBackend, i)
		}
		name := b.Name()
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		seen[name] = struct{}{}

		bopts := append([]xbreaker.BreakerOption{
			xbreaker.WithTripPolicy(xbreaker.NewConsecutiveFailures(5)),
			xbreaker.WithTimeout(30 * time.Second),
			xbreaker.WithOnStateChange(c.logStateChange),
		}, o.breakerOpts...)
		c.tiers = append(c.tiers, &tier{
			backend: b,
			breaker: xbreaker.NewBreaker(name, bopts...),
		})
	}
	return c, nil
}

// Len 返回层数
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tiers)
}

// Names 按顺序返回层名称
func (c *Chain) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.tiers))
	for i, t := range c.tiers {
		names[i] = t.backend.Name()
	}
	return names
}

// Get 依次查询各层，返回第一个命中的值和层名称
func (c *Chain) Get(ctx context.Context, key string) ([]byte, string, bool) {
	if c == nil {
		return nil, "", false
	}
	for _, t := range c.tiers {
		start := time.Now()
		res, err := xbreaker.Execute(ctx, t.breaker, func() (getResult, error) {
			opCtx, cancel := c.opContext(ctx)
			defer cancel()
			v, ok, err := t.backend.Get(opCtx, key)
			return getResult{value: v, hit: ok}, err
		})
		c.observe(ctx, t, "get", start)
		if err != nil {
			t.counters.IncError()
			c.logTierError(ctx, t, "get", key, err)
			continue
		}
		t.counters.IncGet(res.hit)
		if res.hit {
			return res.value, t.backend.Name(), true
		}
	}
	return nil, "", false
}

// Set 写入第一个接受写入的层，返回该层名称；所有层都失败时返回空字符串。
// ttl <= 0 时不写入。
func (c *Chain) Set(ctx context.Context, key string, value []byte, ttl time.Duration) string {
	if c == nil || ttl <= 0 {
		return ""
	}
	for i, t := range c.tiers {
		start := time.Now()
		err := c.opts.retryer.Do(ctx, func(ctx context.Context) error {
			return t.breaker.Do(ctx, func() error {
				opCtx, cancel := c.opContext(ctx)
				defer cancel()
				err := t.backend.Set(opCtx, key, value, ttl)
				if errors.Is(err, ErrClosed) {
					// 已关闭的层重试无意义
					return xretry.NewPermanentError(err)
				}
				return err
			})
		})
		c.observe(ctx, t, "set", start)
		if err == nil {
			t.counters.IncSet()
			return t.backend.Name()
		}
		t.counters.IncError()
		c.logTierError(ctx, t, "set", key, err)
		if i+1 < len(c.tiers) {
			c.opts.logger.Info(ctx, "tier write degraded",
				xlog.Tier(t.backend.Name()),
				slog.String("fallback", c.tiers[i+1].backend.Name()))
		}
	}
	return ""
}

// Delete 从所有层删除 key
func (c *Chain) Delete(ctx context.Context, key string) {
	if c == nil {
		return
	}
	for _, t := range c.tiers {
		err := t.breaker.Do(ctx, func() error {
			opCtx, cancel := c.opContext(ctx)
			defer cancel()
			return t.backend.Delete(opCtx, key)
		})
		if err != nil {
			t.counters.IncError()
			c.logTierError(ctx, t, "delete", key, err)
		}
	}
}

// Clear 清空所有层。Clear 可能耗时较长，不应用单次操作超时。
func (c *Chain) Clear(ctx context.Context) {
	if c == nil {
		return
	}
	for _, t := range c.tiers {
		err := t.breaker.Do(ctx, func() error {
			return t.backend.Clear(ctx)
		})
		if err != nil {
			t.counters.IncError()
			c.logTierError(ctx, t, "clear", "", err)
		}
	}
}

// Ping 检查实现了 Pinger 的层，返回每层的结果（nil 表示健康）
func (c *Chain) Ping(ctx context.Context) map[string]error {
	out := make(map[string]error)
	if c == nil {
		return out
	}
	for _, t := range c.tiers {
		p, ok := t.backend.(Pinger)
		if !ok {
			continue
		}
		pctx, cancel := tieropt.HealthContext(ctx, tieropt.DefaultHealthTimeout)
		err := p.Ping(pctx)
		cancel()
		t.counters.IncPing(err)
		out[t.backend.Name()] = err
	}
	return out
}

// Stats 按顺序返回每层的统计和熔断器状态
func (c *Chain) Stats() []TierStats {
	if c == nil {
		return nil
	}
	out := make([]TierStats, len(c.tiers))
	for i, t := range c.tiers {
		out[i] = TierStats{
			Name:     t.backend.Name(),
			State:    t.breaker.State().String(),
			Snapshot: t.counters.Snapshot(),
		}
	}
	return out
}

// Close 关闭实现了 io.Closer 的层，返回第一个错误
func (c *Chain) Close() error {
	if c == nil {
		return nil
	}
	var first error
	for _, t := range c.tiers {
		if cl, ok := t.backend.(io.Closer); ok {
			if err := cl.Close(); err != nil && first == nil {
				first = fmt.Errorf("xtier: close %s: %w", t.backend.Name(), err)
			}
		}
	}
	return first
}

func (c *Chain) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opts.opTimeout)
}

func (c *Chain) observe(ctx context.Context, t *tier, op string, start time.Time) {
	if t.counters.Observe(start, c.opts.slowThreshold) {
		c.opts.logger.Warn(ctx, "slow tier operation",
			xlog.Tier(t.backend.Name()),
			xlog.Operation(op),
			xlog.Duration(time.Since(start)))
	}
}

func (c *Chain) logTierError(ctx context.Context, t *tier, op, key string, err error) {
	attrs := []slog.Attr{xlog.Tier(t.backend.Name()), xlog.Operation(op), xlog.Err(err)}
	if key != "" {
		attrs = append(attrs, xlog.CacheKey(key))
	}
	if xbreaker.IsOpen(err) {
		c.opts.logger.Debug(ctx, "tier skipped, breaker open", attrs...)
		return
	}
	c.opts.logger.Warn(ctx, "tier operation failed", attrs...)
}

func (c *Chain) logStateChange(name string, from, to xbreaker.State) {
	ctx := context.Background()
	attrs := []slog.Attr{
		xlog.Tier(name),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	}
	if to == xbreaker.StateOpen {
		c.opts.logger.Warn(ctx, "tier breaker opened", attrs...)
		return
	}
	c.opts.logger.Info(ctx, "tier breaker state changed", attrs...)
}
