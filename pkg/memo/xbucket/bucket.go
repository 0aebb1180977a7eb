package xbucket

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNegativeTTL ttl 为负数。
var ErrNegativeTTL = errors.New("xbucket: ttl must not be negative")

// Validate 检查 ttl 是否合法，0 合法（表示旁路）。
func Validate(ttl time.Duration) error {
	if ttl < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeTTL, ttl)
	}
	return nil
}

// Bucket 返回 ts 所在的桶编号 floor(ts/ttl)，ttl <= 0 时返回 0。
//
// 对 Unix 纪元之前的时间同样向下取整。
func Bucket(ts time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return floorDiv(ts.UnixNano(), int64(ttl))
}

// Start 返回第 bucket 个桶的起始时刻。
func Start(bucket int64, ttl time.Duration) time.Time {
	return time.Unix(0, bucket*int64(ttl))
}

// Remaining 返回 ts 距离下一个桶边界的时长，范围 (0, ttl]；ttl <= 0 时返回 0。
func Remaining(ts time.Time, ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	n := ts.UnixNano()
	return time.Duration(int64(ttl) - (n - floorDiv(n, int64(ttl))*int64(ttl)))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Clock 时间源
type Clock interface {
	Now() time.Time
}

// SystemClock 系统时钟
type SystemClock struct{}

// Now 返回 time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// FakeClock 可手动推进的时钟，并发安全
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock 创建停在 t 的时钟
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now 返回当前设定的时间
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set 设定当前时间
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance 推进 d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var (
	_ Clock = SystemClock{}
	_ Clock = (*FakeClock)(nil)
)
