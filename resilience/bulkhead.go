package resilience

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"time"
)

// Bulkhead errors.
var (
	ErrBulkheadFull    = errors.New("bulkhead is full")
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies the bulkhead in logs.
	Name string
	// MaxConcurrent is the number of slots. Zero means one per CPU.
	MaxConcurrent int
	// MaxWait is how long a caller queues for a slot. Zero fails immediately.
	MaxWait time.Duration
	// OnReject is called when a caller gives up waiting.
	OnReject func(name string, err error)
}

// BulkheadStats is a snapshot of a bulkhead's counters.
type BulkheadStats struct {
	InUse    int   `json:"in_use"`
	Capacity int   `json:"capacity"`
	Admitted int64 `json:"admitted"`
	Rejected int64 `json:"rejected"`
}

// Bulkhead limits how many calls run concurrently.
type Bulkhead struct {
	config   BulkheadConfig
	sem      chan struct{}
	admitted atomic.Int64
	rejected atomic.Int64
}

// NewBulkhead creates a bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = runtime.NumCPU()
	}
	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// Acquire takes a slot and returns the function releasing it. It fails with
// ErrBulkheadFull, ErrBulkheadTimeout or the context error.
func (b *Bulkhead) Acquire(ctx context.Context) (release func(), err error) {
	if err := b.acquire(ctx); err != nil {
		b.rejected.Add(1)
		if b.config.OnReject != nil {
			b.config.OnReject(b.config.Name, err)
		}
		return nil, err
	}
	b.admitted.Add(1)

	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			<-b.sem
		}
	}, nil
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case b.sem <- struct{}{}:
		return nil
	default:
	}

	if b.config.MaxWait <= 0 {
		return ErrBulkheadFull
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()

	select {
	case b.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrBulkheadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute runs fn in a slot.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	release, err := b.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// Do runs fn in a slot of b and returns its result.
func Do[T any](b *Bulkhead, ctx context.Context, fn func() (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

// Stats returns the current counters.
func (b *Bulkhead) Stats() BulkheadStats {
	return BulkheadStats{
		InUse:    len(b.sem),
		Capacity: cap(b.sem),
		Admitted: b.admitted.Load(),
		Rejected: b.rejected.Load(),
	}
}

// Name returns the configured name.
func (b *Bulkhead) Name() string {
	return b.config.Name
}
