package xkey

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrUnhashableArgument 参数无法编码为缓存键。
var ErrUnhashableArgument = errors.New("xkey: unhashable argument")

// Key 一次调用的缓存键，可比较，可用作 map 键。
type Key struct {
	repr string
}

// String 返回规范表示。
func (k Key) String() string { return k.repr }

// IsZero 报告是否为零值 Key。
func (k Key) IsZero() bool { return k.repr == "" }

// Digest 返回规范表示的 xxhash64 摘要（16 位十六进制），用于外部存储的键名。
func (k Key) Digest() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(k.repr))
}

// Sum64 返回规范表示的 xxhash64 值。
func (k Key) Sum64() uint64 {
	return xxhash.Sum64String(k.repr)
}

// Keyer 由需要自定义键表示的类型实现。
//
// MemoKey 对相等的值必须返回相同的字符串。返回错误时该参数视为不可哈希。
type Keyer interface {
	MemoKey() (string, error)
}

// Args 一次调用的参数。
type Args struct {
	Positional []any
	Named      map[string]any
}

// Pos 以位置参数构造 Args。
func Pos(args ...any) Args {
	return Args{Positional: args}
}

// With 返回追加了命名参数 name 的副本，不修改 a。
func (a Args) With(name string, value any) Args {
	named := make(map[string]any, len(a.Named)+1)
	maps.Copy(named, a.Named)
	named[name] = value
	return Args{Positional: a.Positional, Named: named}
}

// Key 计算 fnID 下这组参数的缓存键。
func (a Args) Key(fnID string) (Key, error) {
	return Build(fnID, a.Positional, a.Named)
}

// Build 由函数标识、位置参数和命名参数构造缓存键。
//
// 格式：{len(fn)}:{fn}({n}:{arg...}|{m}:{name,value...})
func Build(fnID string, positional []any, named map[string]any) (Key, error) {
	var b strings.Builder
	b.Grow(len(fnID) + 16*(len(positional)+len(named)))

	writeLenPrefixed(&b, fnID)
	b.WriteByte('(')
	b.WriteString(strconv.Itoa(len(positional)))
	b.WriteByte(':')

	e := encoder{b: &b}
	for i, arg := range positional {
		if err := e.encode(arg, "arg["+strconv.Itoa(i)+"]", 0); err != nil {
			return Key{}, err
		}
	}

	b.WriteByte('|')
	b.WriteString(strconv.Itoa(len(named)))
	b.WriteByte(':')
	for _, name := range slices.Sorted(maps.Keys(named)) {
		writeLenPrefixed(&b, name)
		if err := e.encode(named[name], "kw["+name+"]", 0); err != nil {
			return Key{}, err
		}
	}
	b.WriteByte(')')

	return Key{repr: b.String()}, nil
}

// writeLenPrefixed 写入 "{len}:{s}"，s 中含任何字符都不会产生歧义。
func writeLenPrefixed(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}
