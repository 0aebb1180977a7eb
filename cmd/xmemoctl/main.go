// xmemoctl 是 xmemo 记忆化缓存的命令行工具。
//
// 用法:
//
//	xmemoctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config     配置文件路径（YAML/JSON）
//	    --section    配置节点 (默认: memo)
//	    --log-level  日志级别 (默认: warn)
//
// 命令:
//
//	bucket         计算时间桶编号和到下一个边界的剩余时长
//	key            打印参数的规范缓存键和摘要
//	demo           按配置运行一段记忆化负载并打印统计
//	tiers ping     检查配置中的后端层是否可用
//
// 退出码:
//
//	0: 成功
//	1: 执行失败（tiers ping: 存在不可用的层）
//	2: 参数错误
//
// 示例:
//
//	xmemoctl bucket --ttl 60s
//	xmemoctl bucket --ttl 1h --at 2024-05-01T10:30:00Z
//	xmemoctl key --fn users.load 42 --named region=eu
//	xmemoctl -c memo.yaml demo --calls 5000 --keys 100
//	xmemoctl -c memo.yaml tiers ping
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
)

// 版本信息，可通过 -ldflags "-X main.Version=..." 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// exitError 命令已完成输出，只需设置退出码
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 参数错误，退出码 2
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args, os.Stdout, os.Stderr))
}

// createApp 创建 CLI 应用
func createApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xmemoctl",
		Usage:     "xmemo 记忆化缓存命令行工具",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（YAML/JSON）",
			},
			&cli.StringFlag{
				Name:  "section",
				Usage: "配置节点",
				Value: "memo",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
				Value: "warn",
			},
		},
		Commands: []*cli.Command{
			createBucketCommand(),
			createKeyCommand(),
			createDemoCommand(),
			createTiersCommand(),
		},
		// 由 run 统一映射退出码，禁止 urfave/cli 直接 os.Exit
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := createApp(stdout, stderr)
	if err := app.Run(ctx, args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if isCLIUsageError(err) {
			fmt.Fprintf(stderr, "参数错误: %v\n", err)
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// isCLIUsageError 识别 urfave/cli 自身产生的参数错误
func isCLIUsageError(err error) bool {
	if _, ok := err.(cli.ExitCoder); ok {
		return true
	}
	msg := err.Error()
	for _, s := range []string{
		"flag provided but not defined",
		"invalid value",
		"Required flag",
		"No help topic",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
