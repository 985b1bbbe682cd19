package distbuild

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestRunAllJobsExecuted(t *testing.T) {
	const n = 200
	var count atomic.Int64
	seen := make([]atomic.Bool, n)
	err := Run(context.Background(), n, func(_ context.Context, i int) error {
		count.Add(1)
		seen[i].Store(true)
		return nil
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if count.Load() != n {
		t.Fatalf("count = %d, want %d", count.Load(), n)
	}
	for i := range seen {
		if !seen[i].Load() {
			t.Errorf("job %d never ran", i)
		}
	}
}

func TestRunZeroJobs(t *testing.T) {
	called := false
	err := Run(context.Background(), 0, func(_ context.Context, i int) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("Run(0) returned error: %v", err)
	}
	if called {
		t.Errorf("work function should not be called for n=0")
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	wantErr := errors.New("boom")
	err := Run(context.Background(), 50, func(_ context.Context, i int) error {
		if i == 10 {
			return wantErr
		}
		return nil
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run error = %v, want %v", err, wantErr)
	}
}

func TestRunRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, 10, func(ctx context.Context, i int) error {
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}
