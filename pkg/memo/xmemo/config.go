package xmemo

import (
	"fmt"
	"math"
	"time"

	"github.com/omeyang/xmemo/pkg/config/xconf"
	"github.com/omeyang/xmemo/pkg/memo/xbucket"
	"github.com/omeyang/xmemo/pkg/memo/xevict"
	"github.com/omeyang/xmemo/pkg/storage/xtier"
)

// Unbounded 不限容量，只按时间过期
const Unbounded = xevict.Unbounded

// Config 引擎配置
type Config struct {
	// MaxSize 最大条目数，正数或 Unbounded
	MaxSize int
	// TTL 时间桶长度，0 表示旁路（不缓存）
	TTL time.Duration
}

// Validate 检查配置，错误包装 ErrInvalidConfig
func (c Config) Validate() error {
	if c.MaxSize <= 0 && c.MaxSize != Unbounded {
		return fmt.Errorf("%w: %w: %d", ErrInvalidConfig, ErrInvalidMaxSize, c.MaxSize)
	}
	if err := xbucket.Validate(c.TTL); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Settings 可从 YAML/JSON 加载的引擎配置
//
//	memo:
//	  name: users.load
//	  maxsize: 1024      # -1 表示不限容量
//	  ttl: 60s           # 或 ttl_seconds: 60
//	  compute_timeout: 2s
//	  tiers:
//	    order: [redis, file]
type Settings struct {
	Name           string         `koanf:"name"`
	MaxSize        int            `koanf:"maxsize"`
	TTL            time.Duration  `koanf:"ttl"`
	TTLSeconds     float64        `koanf:"ttl_seconds"`
	ComputeTimeout time.Duration  `koanf:"compute_timeout"`
	Tiers          xtier.Settings `koanf:"tiers"`
}

// Config 转换为引擎配置。TTL 优先，未设置时使用 TTLSeconds。
func (s Settings) Config() Config {
	ttl := s.TTL
	if ttl == 0 && s.TTLSeconds != 0 {
		secs := s.TTLSeconds * float64(time.Second)
		switch {
		case secs > math.MaxInt64:
			ttl = time.Duration(math.MaxInt64)
		case secs < math.MinInt64:
			ttl = time.Duration(math.MinInt64)
		default:
			ttl = time.Duration(secs)
		}
	}
	return Config{MaxSize: s.MaxSize, TTL: ttl}
}

// Options 把 Settings 中与 Config 无关的部分转换为选项
func (s Settings) Options() []Option {
	var opts []Option
	if s.Name != "" {
		opts = append(opts, WithName(s.Name))
	}
	if s.ComputeTimeout != 0 {
		opts = append(opts, WithComputeTimeout(s.ComputeTimeout))
	}
	return opts
}

// LoadSettings 从配置文件的 section 节点读取 Settings，section 为空时读取根节点
func LoadSettings(path, section string) (Settings, error) {
	cfg, err := xconf.New(path)
	if err != nil {
		return Settings{}, err
	}
	return SettingsFrom(cfg, section)
}

// SettingsFrom 从已加载的配置读取 Settings
func SettingsFrom(cfg xconf.Config, section string) (Settings, error) {
	var s Settings
	if err := cfg.Unmarshal(section, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
