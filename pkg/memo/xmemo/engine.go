package xmemo

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/omeyang/xmemo/pkg/memo/xbucket"
	"github.com/omeyang/xmemo/pkg/memo/xevict"
	"github.com/omeyang/xmemo/pkg/memo/xkey"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
	"github.com/omeyang/xmemo/pkg/storage/xtier"
)

// 调用结果来源，用作指标的 outcome 标签
const (
	OutcomeBypass     = "bypass"
	OutcomeHit        = "hit"
	OutcomeMiss       = "miss"
	OutcomeTier       = "tier"
	OutcomeShared     = "shared"
	OutcomeError      = "error"
	OutcomeUnhashable = "unhashable"
	OutcomeCanceled   = "canceled"
)

// Computation 被记忆化的计算。ctx 与调用方的 ctx 携带相同的值，但不随调用方取消。
type Computation[V any] func(ctx context.Context) (V, error)

// Engine 记忆化引擎，并发安全。
type Engine[V any] struct {
	cfg            Config
	name           string
	clock          xbucket.Clock
	logger         xlog.Logger
	observer       xmetrics.Observer
	tiers          *xtier.Chain
	codec          xtier.Codec[V]
	cloner         func(V) V
	computeTimeout time.Duration

	store *xevict.SyncStore[xkey.Key, V]
	group singleflight.Group
	stats counters
}

type fillResult[V any] struct {
	value  V
	source string
}

// New 创建引擎。配置非法时返回包装 ErrInvalidConfig 的错误。
func New[V any](cfg Config, opts ...Option) (*Engine[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.computeTimeout < 0 {
		return nil, fmt.Errorf("%w: %w: %s", ErrInvalidConfig, ErrInvalidComputeTimeout, o.computeTimeout)
	}

	codec, err := typed[xtier.Codec[V]](o.codec, "codec")
	if err != nil {
		return nil, err
	}
	if codec == nil {
		codec = xtier.JSONCodec[V]{}
	}
	cloner, err := typed[func(V) V](o.cloner, "cloner")
	if err != nil {
		return nil, err
	}
	onEvict, err := typed[func(xkey.Key, V, xevict.EvictReason)](o.onEvict, "onEvict")
	if err != nil {
		return nil, err
	}

	e := &Engine[V]{
		cfg:            cfg,
		name:           o.name,
		clock:          o.clock,
		logger:         o.logger.With(xlog.Component("xmemo"), slog.String("memo", o.name)),
		observer:       o.observer,
		tiers:          o.tiers,
		codec:          codec,
		cloner:         cloner,
		computeTimeout: o.computeTimeout,
	}

	capacity := cfg.MaxSize
	e.store, err = xevict.NewSync(capacity, xevict.WithOnEvict(func(k xkey.Key, v V, reason xevict.EvictReason) {
		if reason == xevict.ReasonCapacity {
			e.stats.evictions.Add(1)
		}
		if onEvict != nil {
			onEvict(k, v, reason)
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return e, nil
}

// Name 返回函数标识
func (e *Engine[V]) Name() string { return e.name }

// Config 返回引擎配置
func (e *Engine[V]) Config() Config { return e.cfg }

// Key 计算 args 在本引擎下的缓存键
func (e *Engine[V]) Key(args xkey.Args) (xkey.Key, error) {
	return args.Key(e.name)
}

// Do 返回 args 对应的缓存值，必要时调用 fn 计算。
//
// fn 返回的错误原样返回且不缓存。ctx 取消时 Do 立即返回 ctx.Err()，
// 已开始的计算继续执行并为其他等待者写入缓存。
func (e *Engine[V]) Do(ctx context.Context, args xkey.Args, fn Computation[V]) (v V, err error) {
	if e == nil {
		return v, ErrNilEngine
	}
	if fn == nil {
		return v, ErrNilComputation
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := xmetrics.Start(ctx, e.observer, xmetrics.SpanOptions{
		Component: "xmemo",
		Operation: "do",
		Kind:      xmetrics.KindInternal,
		Attrs:     []xmetrics.Attr{xmetrics.String("memo.name", e.name)},
	})
	outcome := OutcomeMiss
	defer func() {
		span.End(xmetrics.Result{Err: err, Outcome: outcome})
	}()

	if e.cfg.TTL == 0 {
		e.stats.bypass.Add(1)
		outcome = OutcomeBypass
		v, err = e.compute(ctx, fn)
		if err != nil {
			e.stats.errors.Add(1)
		}
		return v, err
	}

	key, err := e.Key(args)
	if err != nil {
		e.stats.errors.Add(1)
		outcome = OutcomeUnhashable
		return v, err
	}

	bucket := xbucket.Bucket(e.clock.Now(), e.cfg.TTL)
	if entry, ok := e.store.Get(key, bucket); ok {
		e.stats.hits.Add(1)
		outcome = OutcomeHit
		return e.clone(entry.Value), nil
	}
	e.stats.misses.Add(1)

	// 共享计算使用脱离取消的 ctx，保留调用方 ctx 中的值。
	// 同一个键在不同桶的调用不共享计算，跨过边界的调用方不会拿到上一个桶的结果。
	flightCtx := context.WithoutCancel(ctx)
	ch := e.group.DoChan(flightKey(key, bucket), func() (any, error) {
		return e.fill(flightCtx, key, bucket, fn)
	})
	e.stats.waiting.Add(1)
	defer e.stats.waiting.Add(-1)

	select {
	case <-ctx.Done():
		outcome = OutcomeCanceled
		return v, ctx.Err()
	case res := <-ch:
		if res.Shared {
			e.stats.shared.Add(1)
		}
		if res.Err != nil {
			e.stats.errors.Add(1)
			outcome = OutcomeError
			return v, res.Err
		}
		fr := res.Val.(fillResult[V])
		outcome = fr.source
		if res.Shared && fr.source == OutcomeMiss {
			outcome = OutcomeShared
		}
		return e.clone(fr.value), nil
	}
}

// fill 在 single-flight 内执行：复查存储、查询后端层、计算、写回。
// bucket 是发起调用时的桶，整个计算过程以它为准。
func (e *Engine[V]) fill(ctx context.Context, key xkey.Key, bucket int64, fn Computation[V]) (fillResult[V], error) {
	// 上一轮计算可能刚刚写入
	if entry, ok := e.store.Get(key, bucket); ok {
		return fillResult[V]{value: entry.Value, source: OutcomeHit}, nil
	}

	remoteKey := e.remoteKey(key, bucket)
	if v, ok := e.tierGet(ctx, key, remoteKey); ok {
		e.store.Put(key, v, bucket)
		e.stats.tierHits.Add(1)
		return fillResult[V]{value: v, source: OutcomeTier}, nil
	}

	e.stats.computes.Add(1)
	start := time.Now()
	v, err := e.compute(ctx, fn)
	if err != nil {
		e.logger.Debug(ctx, "computation failed, result not cached",
			xlog.CacheKey(key.Digest()), xlog.Err(err), xlog.Duration(time.Since(start)))
		return fillResult[V]{}, err
	}

	// 计算跨过了桶边界：结果已过期，不能覆盖新桶中可能已写入的条目
	if xbucket.Bucket(e.clock.Now(), e.cfg.TTL) != bucket {
		e.logger.Debug(ctx, "bucket rolled over during computation, result not stored",
			xlog.CacheKey(key.Digest()), xlog.Bucket(bucket))
		return fillResult[V]{value: v, source: OutcomeMiss}, nil
	}
	e.store.Put(key, v, bucket)
	e.tierSet(ctx, key, remoteKey, bucket, v)
	return fillResult[V]{value: v, source: OutcomeMiss}, nil
}

func flightKey(key xkey.Key, bucket int64) string {
	return key.String() + "#" + strconv.FormatInt(bucket, 10)
}

// compute 执行 fn，应用计算超时并把 panic 转换为 ErrComputePanic
func (e *Engine[V]) compute(ctx context.Context, fn Computation[V]) (v V, err error) {
	if e.computeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.computeTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrComputePanic, r)
			e.logger.Error(ctx, "computation panicked", xlog.Err(err))
		}
	}()
	return fn(ctx)
}

func (e *Engine[V]) remoteKey(key xkey.Key, bucket int64) string {
	return key.Digest() + ":" + strconv.FormatInt(bucket, 10)
}

func (e *Engine[V]) tierGet(ctx context.Context, key xkey.Key, remoteKey string) (V, bool) {
	var zero V
	if e.tiers == nil {
		return zero, false
	}
	data, tier, ok := e.tiers.Get(ctx, remoteKey)
	if !ok {
		return zero, false
	}
	v, err := e.codec.Decode(data)
	if err != nil {
		e.logger.Warn(ctx, "tier value decode failed, treated as miss",
			xlog.Tier(tier), xlog.CacheKey(key.Digest()), xlog.Err(err))
		return zero, false
	}
	return v, true
}

func (e *Engine[V]) tierSet(ctx context.Context, key xkey.Key, remoteKey string, bucket int64, v V) {
	if e.tiers == nil {
		return
	}
	now := e.clock.Now()
	// 计算跨过了桶边界，远程条目已经过期
	if xbucket.Bucket(now, e.cfg.TTL) != bucket {
		return
	}
	data, err := e.codec.Encode(v)
	if err != nil {
		e.logger.Warn(ctx, "tier value encode failed, skipped",
			xlog.CacheKey(key.Digest()), xlog.Err(err))
		return
	}
	if e.tiers.Set(ctx, remoteKey, data, xbucket.Remaining(now, e.cfg.TTL)) == "" {
		e.logger.Warn(ctx, "no tier accepted write", xlog.CacheKey(key.Digest()), xlog.Bucket(bucket))
	}
}

func (e *Engine[V]) clone(v V) V {
	if e.cloner == nil {
		return v
	}
	return e.cloner(v)
}

// Invalidate 删除 args 对应的本地条目和当前桶的后端条目
func (e *Engine[V]) Invalidate(ctx context.Context, args xkey.Args) error {
	if e == nil {
		return ErrNilEngine
	}
	key, err := e.Key(args)
	if err != nil {
		return err
	}
	e.InvalidateKey(ctx, key)
	return nil
}

// InvalidateKey 按键删除，返回本地存储中是否存在该键
func (e *Engine[V]) InvalidateKey(ctx context.Context, key xkey.Key) bool {
	if e == nil {
		return false
	}
	if ctx == nil {
		ctx = context.Background()
	}
	removed := e.store.Invalidate(key)
	if e.tiers != nil && e.cfg.TTL > 0 {
		bucket := xbucket.Bucket(e.clock.Now(), e.cfg.TTL)
		e.tiers.Delete(ctx, e.remoteKey(key, bucket))
	}
	return removed
}

// Clear 清空本地存储和所有后端层。
//
// 后端层的 Clear 作用于整个前缀，共享该前缀的其他引擎的条目也会被删除。
func (e *Engine[V]) Clear(ctx context.Context) {
	if e == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	e.store.Clear()
	if e.tiers != nil {
		e.tiers.Clear(ctx)
	}
	e.logger.Info(ctx, "memo cleared")
}

// Len 返回本地存储中的条目数（包含尚未惰性删除的过期条目）
func (e *Engine[V]) Len() int {
	if e == nil {
		return 0
	}
	return e.store.Len()
}
