package xmemo_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xmemo/pkg/memo/xbucket"
	"github.com/omeyang/xmemo/pkg/memo/xkey"
	"github.com/omeyang/xmemo/pkg/memo/xmemo"
	"github.com/omeyang/xmemo/pkg/resilience/xretry"
	"github.com/omeyang/xmemo/pkg/storage/xtier"
)

func newRedisChain(t *testing.T) (*xtier.Chain, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:         mr.Addr(),
		DialTimeout:  100 * time.Millisecond,
		ReadTimeout:  100 * time.Millisecond,
		WriteTimeout: 100 * time.Millisecond,
		PoolSize:     2,
		MaxRetries:   0,
	})
	t.Cleanup(func() { _ = client.Close() })

	r, err := xtier.NewRedis(client)
	require.NoError(t, err)
	chain, err := xtier.NewChain([]xtier.Backend{r},
		xtier.WithRetryer(xretry.NewRetryer(xretry.WithRetryPolicy(xretry.NewNeverRetry()))))
	require.NoError(t, err)
	return chain, mr
}

func remoteKey(t *testing.T, eng *xmemo.Engine[int], clk xbucket.Clock, args xkey.Args) string {
	t.Helper()
	k, err := eng.Key(args)
	require.NoError(t, err)
	return "xmemo:" + k.Digest() + ":" + strconv.FormatInt(xbucket.Bucket(clk.Now(), eng.Config().TTL), 10)
}

func TestTiers_WriteThroughAndShare(t *testing.T) {
	chain, mr := newRedisChain(t)
	cfg := xmemo.Config{MaxSize: 10, TTL: time.Minute}

	clk := xbucket.NewFakeClock(epoch.Add(15 * time.Second))
	a, err := xmemo.New[int](cfg, xmemo.WithName("square"), xmemo.WithClock(clk), xmemo.WithTiers(chain))
	require.NoError(t, err)
	b, err := xmemo.New[int](cfg, xmemo.WithName("square"), xmemo.WithClock(clk), xmemo.WithTiers(chain))
	require.NoError(t, err)

	sqA, sqB := &square{}, &square{}
	call(t, a, sqA, 6)

	key := remoteKey(t, a, clk, xkey.Pos(6))
	require.True(t, mr.Exists(key))
	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "36", got)
	assert.Equal(t, 45*time.Second, mr.TTL(key), "remote ttl ends at the bucket boundary")

	call(t, b, sqB, 6)
	assert.Zero(t, sqB.count(), "second engine served from the tier")
	assert.Equal(t, uint64(1), b.Stats().TierHits)

	call(t, b, sqB, 6)
	assert.Equal(t, uint64(1), b.Stats().Hits, "tier hit was stored locally")

	clk.Advance(time.Minute)
	call(t, b, sqB, 6)
	assert.Equal(t, int64(1), sqB.count(), "next bucket uses a new remote key")
}

func TestTiers_DecodeFailureIsMiss(t *testing.T) {
	chain, mr := newRedisChain(t)
	eng, clk := newEngine(t, xmemo.Config{MaxSize: 10, TTL: time.Minute}, xmemo.WithTiers(chain))

	require.NoError(t, mr.Set(remoteKey(t, eng, clk, xkey.Pos(3)), "not-json"))

	sq := &square{}
	call(t, eng, sq, 3)
	assert.Equal(t, int64(1), sq.count())
	assert.Zero(t, eng.Stats().TierHits)
}

func TestTiers_UnavailableDegradesToCompute(t *testing.T) {
	chain, mr := newRedisChain(t)
	eng, _ := newEngine(t, xmemo.Config{MaxSize: 10, TTL: time.Minute}, xmemo.WithTiers(chain))
	mr.Close()

	sq := &square{}
	call(t, eng, sq, 4)
	call(t, eng, sq, 4)
	assert.Equal(t, int64(1), sq.count())

	st := chain.Stats()
	require.Len(t, st, 1)
	assert.Positive(t, st[0].Errors)
}

func TestTiers_InvalidateAndClearPropagate(t *testing.T) {
	chain, mr := newRedisChain(t)
	eng, clk := newEngine(t, xmemo.Config{MaxSize: 10, TTL: time.Minute}, xmemo.WithTiers(chain))
	sq := &square{}

	call(t, eng, sq, 1)
	call(t, eng, sq, 2)
	require.Len(t, mr.Keys(), 2)

	require.NoError(t, eng.Invalidate(context.Background(), xkey.Pos(1)))
	assert.False(t, mr.Exists(remoteKey(t, eng, clk, xkey.Pos(1))))
	assert.True(t, mr.Exists(remoteKey(t, eng, clk, xkey.Pos(2))))

	eng.Clear(context.Background())
	assert.Empty(t, mr.Keys())
}

func TestTiers_BypassNeverTouchesTiers(t *testing.T) {
	chain, mr := newRedisChain(t)
	eng, _ := newEngine(t, xmemo.Config{MaxSize: 10, TTL: 0}, xmemo.WithTiers(chain))

	sq := &square{}
	call(t, eng, sq, 1)
	call(t, eng, sq, 1)
	assert.Equal(t, int64(2), sq.count())
	assert.Empty(t, mr.Keys())
}

func TestTiers_FileFallback(t *testing.T) {
	file, err := xtier.NewFile(t.TempDir())
	require.NoError(t, err)
	chain, err := xtier.NewChain([]xtier.Backend{file})
	require.NoError(t, err)

	cfg := xmemo.Config{MaxSize: 10, TTL: time.Hour}
	clk := xbucket.NewFakeClock(epoch)
	opts := []xmemo.Option{
		xmemo.WithName("greet"),
		xmemo.WithClock(clk),
		xmemo.WithTiers(chain),
		xmemo.WithCodec[string](xtier.StringCodec{}),
	}
	a, err := xmemo.New[string](cfg, opts...)
	require.NoError(t, err)
	b, err := xmemo.New[string](cfg, opts...)
	require.NoError(t, err)

	greet := func(name string) xmemo.Computation[string] {
		return func(context.Context) (string, error) { return "hello " + name, nil }
	}
	_, err = a.Do(context.Background(), xkey.Pos("go"), greet("go"))
	require.NoError(t, err)

	var computed bool
	v, err := b.Do(context.Background(), xkey.Pos("go"), func(context.Context) (string, error) {
		computed = true
		return "", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "hello go", v)
	assert.False(t, computed, "served from the file tier")
}
