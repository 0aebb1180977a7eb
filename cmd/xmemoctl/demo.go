package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/omeyang/xmemo/pkg/memo/xkey"
	"github.com/omeyang/xmemo/pkg/memo/xmemo"
	"github.com/omeyang/xmemo/pkg/observability/xlog"
	"github.com/omeyang/xmemo/pkg/observability/xmetrics"
)

// demoParams demo 命令参数
type demoParams struct {
	calls   int
	keys    int
	workers int
	work    time.Duration
}

func createDemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "按配置运行一段记忆化负载并打印统计",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "calls", Usage: "调用总数", Value: 1000},
			&cli.IntFlag{Name: "keys", Usage: "不同参数的数量", Value: 50},
			&cli.IntFlag{Name: "workers", Usage: "并发数", Value: 8},
			&cli.DurationFlag{Name: "work", Usage: "每次计算的模拟耗时", Value: time.Millisecond},
			&cli.IntFlag{Name: "maxsize", Usage: "覆盖配置中的 maxsize（-1 不限容量）"},
			&cli.DurationFlag{Name: "ttl", Usage: "覆盖配置中的 ttl"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if cmd.Root().String("config") == "" {
				s.MaxSize, s.TTL = 128, time.Minute
			}
			if cmd.IsSet("maxsize") {
				s.MaxSize = cmd.Int("maxsize")
			}
			if cmd.IsSet("ttl") {
				s.TTL = cmd.Duration("ttl")
			}

			p := demoParams{
				calls:   cmd.Int("calls"),
				keys:    cmd.Int("keys"),
				workers: cmd.Int("workers"),
				work:    cmd.Duration("work"),
			}
			if p.calls <= 0 || p.keys <= 0 || p.workers <= 0 {
				return usagef("--calls、--keys、--workers 必须为正数")
			}

			logger, cleanup, err := buildLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()
			return cmdDemo(ctx, cmd.Root().Writer, s, p, logger)
		},
	}
}

func cmdDemo(ctx context.Context, w io.Writer, s xmemo.Settings, p demoParams, logger xlog.Logger) error {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.WithoutCancel(ctx)) }()

	observer, err := xmetrics.NewOTelObserver(
		xmetrics.WithInstrumentationName("xmemoctl"),
		xmetrics.WithMeterProvider(provider),
	)
	if err != nil {
		return err
	}

	chain, closer, err := s.Tiers.Build(logger)
	if err != nil {
		return err
	}
	defer func() { _ = closer() }()

	opts := append(s.Options(),
		xmemo.WithLogger(logger),
		xmemo.WithObserver(observer),
	)
	if chain != nil {
		opts = append(opts, xmemo.WithTiers(chain))
	}
	eng, err := xmemo.New[int](s.Config(), opts...)
	if err != nil {
		return err
	}

	start := time.Now()
	errs := runWorkload(ctx, eng, p)
	elapsed := time.Since(start)

	st := eng.Stats()
	fmt.Fprintf(w, "calls=%d keys=%d workers=%d elapsed=%s errors=%d\n", p.calls, p.keys, p.workers, elapsed, errs)
	fmt.Fprintf(w, "maxsize=%d ttl=%s size=%d\n", s.Config().MaxSize, s.Config().TTL, st.Size)
	fmt.Fprintf(w, "hits=%d misses=%d stale=%d bypass=%d computes=%d shared=%d tier_hits=%d evictions=%d hit_ratio=%.3f\n",
		st.Hits, st.Misses, st.Stale, st.Bypass, st.Computes, st.Shared, st.TierHits, st.Evictions, st.HitRatio())

	outcomes, err := collectOutcomes(ctx, reader)
	if err != nil {
		return err
	}
	for _, k := range sortedKeys(outcomes) {
		fmt.Fprintf(w, "outcome %-10s %d\n", k, outcomes[k])
	}
	for _, ts := range chain.Stats() {
		fmt.Fprintf(w, "tier %-8s state=%s gets=%d hits=%d sets=%d errors=%d slow=%d\n",
			ts.Name, ts.State, ts.Gets, ts.Hits, ts.Sets, ts.Errors, ts.Slow)
	}
	return nil
}

// runWorkload 用 workers 个 goroutine 发起 calls 次调用，参数在 keys 个值中轮转
func runWorkload(ctx context.Context, eng *xmemo.Engine[int], p demoParams) int {
	jobs := make(chan int)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs int
	)
	for range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				n := i % p.keys
				_, err := eng.Do(ctx, xkey.Pos(n), func(ctx context.Context) (int, error) {
					if p.work > 0 {
						select {
						case <-time.After(p.work):
						case <-ctx.Done():
							return 0, ctx.Err()
						}
					}
					return n * n, nil
				})
				if err != nil {
					mu.Lock()
					errs++
					mu.Unlock()
				}
			}
		}()
	}

loop:
	for i := range p.calls {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break loop
		}
	}
	close(jobs)
	wg.Wait()
	return errs
}

func collectOutcomes(ctx context.Context, reader *sdkmetric.ManualReader) (map[string]int64, error) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.WithoutCancel(ctx), &rm); err != nil {
		return nil, fmt.Errorf("collect metrics: %w", err)
	}
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != xmetrics.MetricOperationTotal {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key("outcome"))
				out[v.AsString()] += dp.Value
			}
		}
	}
	return out, nil
}
