// Package xconf 基于 koanf 加载 YAML/JSON 配置。
//
// 配置在装饰（构造）时一次性读取，缓存引擎不做运行时热更新；
// 需要重新读取文件时调用 Reload 并重新构造引擎。
//
//	cfg, err := xconf.New("memo.yaml")
//	if err != nil {
//		return err
//	}
//	var s xmemo.Settings
//	if err := cfg.Unmarshal("memo", &s); err != nil {
//		return err
//	}
//
// 结构体字段使用 koanf 标签映射，time.Duration 字段支持 "60s" 形式的字符串。
package xconf
