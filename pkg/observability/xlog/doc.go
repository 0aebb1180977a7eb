// Package xlog 提供基于 log/slog 的结构化日志。
//
// 所有日志方法都以 context.Context 作为第一个参数，属性只接受 slog.Attr。
// 通过 Builder 构建 Logger，Build 返回 cleanup 用于关闭轮转文件：
//
//	logger, cleanup, err := xlog.New().
//		SetLevel(xlog.LevelInfo).
//		SetFormat("json").
//		SetRotation("/var/log/xmemo/app.log", xlog.WithMaxSize(100)).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
//	logger.Info(ctx, "cache ready", xlog.Component("xmemo"), xlog.Count(128))
//
// 库代码应通过选项注入 Logger，未注入时使用 Discard()，不输出任何内容。
// 全局 Default/SetDefault 仅面向命令行工具等简单场景。
package xlog
