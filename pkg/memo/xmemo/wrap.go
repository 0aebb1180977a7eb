package xmemo

import (
	"context"

	"github.com/omeyang/xmemo/pkg/memo/xkey"
)

// Wrap 把单参数函数包装为记忆化函数，函数标识为引擎名称
func Wrap[A, V any](e *Engine[V], fn func(ctx context.Context, a A) (V, error)) func(ctx context.Context, a A) (V, error) {
	return func(ctx context.Context, a A) (V, error) {
		if fn == nil {
			var zero V
			return zero, ErrNilComputation
		}
		return e.Do(ctx, xkey.Pos(a), func(ctx context.Context) (V, error) {
			return fn(ctx, a)
		})
	}
}

// Wrap2 把双参数函数包装为记忆化函数
func Wrap2[A, B, V any](e *Engine[V], fn func(ctx context.Context, a A, b B) (V, error)) func(ctx context.Context, a A, b B) (V, error) {
	return func(ctx context.Context, a A, b B) (V, error) {
		if fn == nil {
			var zero V
			return zero, ErrNilComputation
		}
		return e.Do(ctx, xkey.Pos(a, b), func(ctx context.Context) (V, error) {
			return fn(ctx, a, b)
		})
	}
}

// WrapArgs 包装接收 xkey.Args 的函数，用于带命名参数的调用
//
//	search := xmemo.WrapArgs(eng, func(ctx context.Context, args xkey.Args) ([]Hit, error) {
//		return index.Search(ctx, args.Positional[0].(string), args.Named["limit"].(int))
//	})
//	hits, err := search(ctx, xkey.Pos("go").With("limit", 10))
func WrapArgs[V any](e *Engine[V], fn func(ctx context.Context, args xkey.Args) (V, error)) func(ctx context.Context, args xkey.Args) (V, error) {
	return func(ctx context.Context, args xkey.Args) (V, error) {
		if fn == nil {
			var zero V
			return zero, ErrNilComputation
		}
		return e.Do(ctx, args, func(ctx context.Context) (V, error) {
			return fn(ctx, args)
		})
	}
}
