package engine

import (
	"context"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/panbanda/codesim/pkg/analyzer"
)

// bounded runs fn inside a panic catcher and the per-scorer deadline. A
// panic or an expired deadline yields fallback and a failure; fn keeps
// running in the background until it observes the cancelled context.
func bounded[T any](ctx context.Context, timeout time.Duration, scorer string, fallback T, fn func(context.Context) T) (T, *analyzer.Failure) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		var (
			pc panics.Catcher
			v  T
		)
		pc.Try(func() { v = fn(ctx) })
		var err error
		if r := pc.Recovered(); r != nil {
			err = r.AsError()
		}
		done <- outcome{value: v, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			return fallback, analyzer.NewFailure(scorer, analyzer.KindInternal, o.err)
		}
		return o.value, nil
	case <-ctx.Done():
		return fallback, analyzer.NewFailure(scorer, analyzer.KindTimeout, ctx.Err())
	}
}
