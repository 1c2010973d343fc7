package analyst

import (
	"context"
	"errors"
	"time"

	"quorum/internal/indicator"
	"quorum/internal/logger"
	"quorum/internal/market"

	"golang.org/x/sync/errgroup"
)

// Analyst 单个领域分析师。实现必须无共享可变状态，可被并发调度。
type Analyst interface {
	Name() string
	Analyze(ctx context.Context, symbol, interval string) (Result, error)
}

// Runner 并发扇出全部分析师并等待收齐。
// 单个分析师失败只会变成弃权，绝不让整个决策周期崩溃。
type Runner struct {
	analysts []Analyst
	timeout  time.Duration
}

func NewRunner(timeout time.Duration, analysts ...Analyst) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	valid := make([]Analyst, 0, len(analysts))
	for _, a := range analysts {
		if a != nil {
			valid = append(valid, a)
		}
	}
	return &Runner{analysts: valid, timeout: timeout}
}

// Run 扇出→等待→收齐。返回结果顺序与注册顺序一致。
func (r *Runner) Run(ctx context.Context, symbol, interval string) []Result {
	if len(r.analysts) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]Result, len(r.analysts))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, a := range r.analysts {
		i, a := i, a
		eg.Go(func() error {
			runCtx, cancel := context.WithTimeout(egCtx, r.timeout)
			defer cancel()
			res, err := a.Analyze(runCtx, symbol, interval)
			if err != nil {
				results[i] = abstainFor(a.Name(), err)
				logger.Warnf("[analyst] %s %s 弃权: %v", a.Name(), symbol, err)
				return nil
			}
			res.Agent = a.Name()
			results[i] = res
			return nil
		})
	}
	// 每个 goroutine 都返回 nil，Wait 只起 join 作用
	_ = eg.Wait()
	return results
}

func abstainFor(name string, err error) Result {
	why := "分析失败"
	switch {
	case errors.Is(err, market.ErrDataUnavailable):
		why = "数据源不可用"
	case errors.Is(err, indicator.ErrInsufficientData):
		why = "K 线数量不足"
	}
	return Abstain(name, why)
}
