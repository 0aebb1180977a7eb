package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xmemo/pkg/memo/xbucket"
	"github.com/omeyang/xmemo/pkg/memo/xkey"
	"github.com/omeyang/xmemo/pkg/memo/xmemo"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
)

func createBucketCommand() *cli.Command {
	return &cli.Command{
		Name:  "bucket",
		Usage: "计算时间桶编号和到下一个边界的剩余时长",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:     "ttl",
				Usage:    "时间桶长度，例如 60s",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "at",
				Usage: "时间点（RFC3339），默认当前时间",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			at := time.Now()
			if s := cmd.String("at"); s != "" {
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					return usagef("--at 不是 RFC3339 时间: %v", err)
				}
				at = t
			}
			return cmdBucket(cmd.Root().Writer, cmd.Duration("ttl"), at)
		},
	}
}

func cmdBucket(w io.Writer, ttl time.Duration, at time.Time) error {
	if err := xbucket.Validate(ttl); err != nil {
		return usagef("%v", err)
	}
	if ttl == 0 {
		fmt.Fprintln(w, "ttl 为 0：旁路模式，不缓存")
		return nil
	}
	b := xbucket.Bucket(at, ttl)
	fmt.Fprintf(w, "bucket:    %d\n", b)
	fmt.Fprintf(w, "start:     %s\n", xbucket.Start(b, ttl).UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(w, "next:      %s\n", xbucket.Start(b+1, ttl).UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(w, "remaining: %s\n", xbucket.Remaining(at, ttl))
	return nil
}

func createKeyCommand() *cli.Command {
	return &cli.Command{
		Name:      "key",
		Usage:     "打印参数的规范缓存键和摘要",
		ArgsUsage: "[args...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "fn",
				Usage: "函数标识",
				Value: "xmemo",
			},
			&cli.StringSliceFlag{
				Name:  "named",
				Usage: "命名参数 name=value，可重复",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			named, err := parseNamed(cmd.StringSlice("named"))
			if err != nil {
				return err
			}
			return cmdKey(cmd.Root().Writer, cmd.String("fn"), cmd.Args().Slice(), named)
		},
	}
}

func parseNamed(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	named := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, usagef("--named 需要 name=value 形式: %q", p)
		}
		named[name] = value
	}
	return named, nil
}

func cmdKey(w io.Writer, fn string, positional []string, named map[string]any) error {
	args := make([]any, len(positional))
	for i, p := range positional {
		args[i] = p
	}
	k, err := xkey.Build(fn, args, named)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "key:    %s\n", k.String())
	fmt.Fprintf(w, "digest: %s\n", k.Digest())
	return nil
}

func createTiersCommand() *cli.Command {
	return &cli.Command{
		Name:  "tiers",
		Usage: "后端层工具",
		Commands: []*cli.Command{
			{
				Name:  "ping",
				Usage: "检查配置中的后端层是否可用",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					s, err := loadSettings(cmd)
					if err != nil {
						return err
					}
					logger, cleanup, err := buildLogger(cmd)
					if err != nil {
						return err
					}
					defer func() { _ = cleanup() }()
					return cmdTiersPing(ctx, cmd.Root().Writer, s, logger)
				},
			},
		},
	}
}

func cmdTiersPing(ctx context.Context, w io.Writer, s xmemo.Settings, logger xlog.Logger) error {
	chain, closer, err := s.Tiers.Build(logger)
	if err != nil {
		return err
	}
	defer func() { _ = closer() }()
	if chain == nil {
		fmt.Fprintln(w, "未配置后端层")
		return nil
	}

	results := chain.Ping(ctx)
	failed := false
	for _, name := range chain.Names() {
		err, ok := results[name]
		switch {
		case !ok:
			fmt.Fprintf(w, "%-10s n/a\n", name)
		case err != nil:
			failed = true
			fmt.Fprintf(w, "%-10s FAIL %v\n", name, err)
		default:
			fmt.Fprintf(w, "%-10s ok\n", name)
		}
	}
	if failed {
		return &exitError{code: 1}
	}
	return nil
}

// loadSettings 读取 --config 指定的配置，未指定时返回 nil 错误和零值
func loadSettings(cmd *cli.Command) (xmemo.Settings, error) {
	path := cmd.Root().String("config")
	if path == "" {
		return xmemo.Settings{}, nil
	}
	return xmemo.LoadSettings(path, cmd.Root().String("section"))
}

func buildLogger(cmd *cli.Command) (xlog.LoggerWithLevel, func() error, error) {
	logger, cleanup, err := xlog.New().
		SetOutput(cmd.Root().ErrWriter).
		SetLevelString(cmd.Root().String("log-level")).
		Build()
	if err != nil {
		return nil, nil, usagef("%v", err)
	}
	return logger, cleanup, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
