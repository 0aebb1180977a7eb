package xmemo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xmemo/pkg/memo/xkey"
	"github.com/omeyang/xmemo/pkg/memo/xmemo"
)

func TestWrap(t *testing.T) {
	eng, clk := newEngine(t, xmemo.Config{MaxSize: 10, TTL: time.Minute})
	var calls int
	double := xmemo.Wrap(eng, func(_ context.Context, n int) (int, error) {
		calls++
		return n * 2, nil
	})

	for range 3 {
		v, err := double(context.Background(), 21)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, calls)

	clk.Advance(time.Minute)
	_, err := double(context.Background(), 21)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWrap2(t *testing.T) {
	eng, _ := newEngine(t, xmemo.Config{MaxSize: 10, TTL: time.Minute})
	var calls int
	add := xmemo.Wrap2(eng, func(_ context.Context, a, b int) (int, error) {
		calls++
		return a + b, nil
	})

	v, err := add(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	v, err = add(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, calls, "argument order matters for positional args")

	_, _ = add(context.Background(), 1, 2)
	assert.Equal(t, 2, calls)
}

func TestWrapArgs(t *testing.T) {
	eng, _ := newEngine(t, xmemo.Config{MaxSize: 10, TTL: time.Minute})
	var calls int
	scaled := xmemo.WrapArgs(eng, func(_ context.Context, args xkey.Args) (int, error) {
		calls++
		return args.Positional[0].(int) * args.Named["factor"].(int), nil
	})

	v, err := scaled(context.Background(), xkey.Pos(3).With("factor", 4))
	require.NoError(t, err)
	assert.Equal(t, 12, v)
	_, err = scaled(context.Background(), xkey.Pos(3).With("factor", 4))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWrap_NilFunc(t *testing.T) {
	eng, _ := newEngine(t, xmemo.Config{MaxSize: 10, TTL: time.Minute})
	_, err := xmemo.Wrap[int](eng, nil)(context.Background(), 1)
	assert.ErrorIs(t, err, xmemo.ErrNilComputation)
	_, err = xmemo.Wrap2[int, int](eng, nil)(context.Background(), 1, 2)
	assert.ErrorIs(t, err, xmemo.ErrNilComputation)
}
