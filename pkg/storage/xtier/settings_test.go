package xtier_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xmemo/pkg/config/xconf"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/storage/xtier"
)

func TestSettings_EmptyOrder(t *testing.T) {
	chain, closer, err := xtier.Settings{}.Build(nil)
	require.NoError(t, err)
	assert.Nil(t, chain)
	assert.NoError(t, closer())
}

func TestSettings_UnknownTier(t *testing.T) {
	_, _, err := xtier.Settings{Order: []string{"memory", "s3"}}.Build(nil)
	assert.ErrorIs(t, err, xtier.ErrUnknownTier)
}

func TestSettings_RedisRequiresAddrs(t *testing.T) {
	_, _, err := xtier.Settings{Order: []string{"redis"}}.Build(nil)
	assert.ErrorIs(t, err, xtier.ErrNoAddrs)
}

func TestSettings_BuildFromConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := filepath.Join(t.TempDir(), "memo")

	yaml := []byte(`
tiers:
  order: [redis, file, memory]
  op_timeout: 200ms
  redis:
    addrs: ["` + mr.Addr() + `"]
    prefix: "test:"
  file:
    dir: "` + dir + `"
  memory:
    max_cost: 1048576
`)
	cfg, err := xconf.NewFromBytes(yaml, xconf.FormatYAML)
	require.NoError(t, err)

	var s xtier.Settings
	require.NoError(t, cfg.Unmarshal("tiers", &s))
	assert.Equal(t, 200*time.Millisecond, s.OpTimeout)

	chain, closer, err := s.Build(xlog.Discard())
	require.NoError(t, err)
	defer func() { assert.NoError(t, closer()) }()

	assert.Equal(t, []string{"redis", "file", "memory"}, chain.Names())

	ctx := context.Background()
	assert.Equal(t, "redis", chain.Set(ctx, "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("test:k"))

	for name, err := range chain.Ping(ctx) {
		assert.NoError(t, err, name)
	}
}
