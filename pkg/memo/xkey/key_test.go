package xkey_test

import (
	"errors"
	"math"
	"net/netip"
	"strings"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xmemo/pkg/memo/xkey"
)

type point struct {
	X, Y int
	tag  string
}

type node struct {
	Val  int
	Next *node
}

type sku string

func (s sku) MemoKey() (string, error) { return strings.ToUpper(string(s)), nil }

type badKeyer struct{}

func (badKeyer) MemoKey() (string, error) { return "", errors.New("no stable form") }

func mustBuild(t *testing.T, fn string, pos []any, named map[string]any) xkey.Key {
	t.Helper()
	k, err := xkey.Build(fn, pos, named)
	require.NoError(t, err)
	return k
}

func TestBuild_EqualArgsEqualKeys(t *testing.T) {
	a := mustBuild(t, "prices", []any{"EUR", 3, point{1, 2, "a"}}, map[string]any{"tax": true, "round": 2})
	b := mustBuild(t, "prices", []any{"EUR", 3, point{1, 2, "a"}}, map[string]any{"round": 2, "tax": true})

	assert.Equal(t, a, b)
	assert.Equal(t, a.Digest(), b.Digest())
	assert.Len(t, a.Digest(), 16)
	assert.Equal(t, a.Sum64(), b.Sum64())
	assert.False(t, a.IsZero())
	assert.True(t, xkey.Key{}.IsZero())
}

func TestBuild_DistinctArgsDistinctKeys(t *testing.T) {
	tests := []struct {
		name string
		a, b xkey.Args
	}{
		{"positional order", xkey.Pos(1, 2), xkey.Pos(2, 1)},
		{"int kinds", xkey.Pos(1), xkey.Pos(int64(1))},
		{"string vs int", xkey.Pos("1"), xkey.Pos(1)},
		{"string split", xkey.Pos("a:b", "c"), xkey.Pos("a", "b:c")},
		{"separator injection", xkey.Pos("x;", "y"), xkey.Pos("x", ";y")},
		{"positional vs named", xkey.Pos(1), xkey.Args{Named: map[string]any{"a": 1}}},
		{"named value", xkey.Pos().With("a", 1), xkey.Pos().With("a", 2)},
		{"named name", xkey.Pos().With("a", 1), xkey.Pos().With("b", 1)},
		{"nil vs empty slice", xkey.Pos([]int(nil)), xkey.Pos([]int{})},
		{"nested slices", xkey.Pos([]any{[]int{1}, []int{2}}), xkey.Pos([]any{[]int{1, 2}})},
		{"unexported field", xkey.Pos(point{1, 2, "a"}), xkey.Pos(point{1, 2, "b"})},
		{"nil vs zero", xkey.Pos(nil), xkey.Pos(0)},
		{"bool", xkey.Pos(true), xkey.Pos(false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka, err := tt.a.Key("fn")
			require.NoError(t, err)
			kb, err := tt.b.Key("fn")
			require.NoError(t, err)
			assert.NotEqual(t, ka, kb)
		})
	}
}

func TestBuild_FunctionIdentityMatters(t *testing.T) {
	a := mustBuild(t, "a", []any{1}, nil)
	b := mustBuild(t, "b", []any{1}, nil)
	assert.NotEqual(t, a, b)

	// 函数名中的分隔符不会与参数混淆
	c := mustBuild(t, "f(1:", nil, nil)
	d := mustBuild(t, "f", []any{1}, nil)
	assert.NotEqual(t, c, d)
}

func TestBuild_MapsAreOrderIndependent(t *testing.T) {
	m1 := map[string]int{}
	m2 := map[string]int{}
	for i := range 50 {
		m1[string(rune('a'+i%26))+string(rune('A'+i))] = i
	}
	for i := 49; i >= 0; i-- {
		m2[string(rune('a'+i%26))+string(rune('A'+i))] = i
	}
	assert.Equal(t, mustBuild(t, "fn", []any{m1}, nil), mustBuild(t, "fn", []any{m2}, nil))
}

func TestBuild_PointersEncodeByValue(t *testing.T) {
	x, y := 5, 5
	assert.Equal(t, mustBuild(t, "fn", []any{&x}, nil), mustBuild(t, "fn", []any{&y}, nil))

	var nilPtr *int
	assert.NotEqual(t, mustBuild(t, "fn", []any{nilPtr}, nil), mustBuild(t, "fn", []any{&x}, nil))
}

func TestBuild_Floats(t *testing.T) {
	assert.Equal(t, mustBuild(t, "fn", []any{0.0}, nil), mustBuild(t, "fn", []any{math.Copysign(0, -1)}, nil))
	assert.NotEqual(t, mustBuild(t, "fn", []any{0.1}, nil), mustBuild(t, "fn", []any{0.2}, nil))
	assert.Equal(t, mustBuild(t, "fn", []any{complex(1, 2)}, nil), mustBuild(t, "fn", []any{complex(1, 2)}, nil))
}

func TestBuild_CustomRepresentations(t *testing.T) {
	assert.Equal(t, mustBuild(t, "fn", []any{sku("ab-1")}, nil), mustBuild(t, "fn", []any{sku("AB-1")}, nil))

	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, mustBuild(t, "fn", []any{ts}, nil), mustBuild(t, "fn", []any{ts.Add(0)}, nil))
	assert.NotEqual(t, mustBuild(t, "fn", []any{ts}, nil), mustBuild(t, "fn", []any{ts.Add(time.Second)}, nil))

	addr := netip.MustParseAddr("10.0.0.1")
	assert.Contains(t, mustBuild(t, "fn", []any{addr}, nil).String(), "10.0.0.1")
}

func TestBuild_Unhashable(t *testing.T) {
	cyclic := &node{Val: 1}
	cyclic.Next = cyclic
	x := 1

	tests := []struct {
		name string
		pos  []any
		kw   map[string]any
		path string
	}{
		{"func", []any{func() {}}, nil, "arg[0]"},
		{"chan", []any{1, make(chan int)}, nil, "arg[1]"},
		{"unsafe pointer", []any{unsafe.Pointer(&x)}, nil, "arg[0]"},
		{"func in slice", []any{[]any{1, func() {}}}, nil, "arg[0][1]"},
		{"func as named", nil, map[string]any{"cb": func() {}}, "kw[cb]"},
		{"cycle", []any{cyclic}, nil, "arg[0]"},
		{"keyer error", []any{badKeyer{}}, nil, "arg[0]"},
		{"func map value", []any{map[string]int{"ok": 1}}, map[string]any{"m": map[string]any{"f": func() {}}}, "kw[m]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := xkey.Build("fn", tt.pos, tt.kw)
			require.ErrorIs(t, err, xkey.ErrUnhashableArgument)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestArgs_WithDoesNotMutate(t *testing.T) {
	base := xkey.Pos(1).With("a", 1)
	derived := base.With("b", 2)

	assert.Len(t, base.Named, 1)
	assert.Len(t, derived.Named, 2)

	k1, err := base.Key("fn")
	require.NoError(t, err)
	k2, err := derived.Key("fn")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestKey_UsableAsMapKey(t *testing.T) {
	seen := map[xkey.Key]int{}
	for range 3 {
		seen[mustBuild(t, "fn", []any{"x"}, nil)]++
	}
	assert.Len(t, seen, 1)
}

func BenchmarkBuild(b *testing.B) {
	pos := []any{"EUR", 42, point{1, 2, "a"}}
	named := map[string]any{"tax": true, "round": 2}
	for b.Loop() {
		_, _ = xkey.Build("prices", pos, named)
	}
}
