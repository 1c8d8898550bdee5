package server

import (
	"context"
	"errors"
	"sync"
	"time"
)

// RebuildRequest asks for a site rebuild.
type RebuildRequest struct {
	Reason      string // e.g. "content_change", "config_change", "schedule"
	Path        string // file that triggered the request, if any
	RequestedAt time.Time
}

// Rebuild is the coalesced outcome of one or more rebuild requests.
type Rebuild struct {
	TriggeredAt   time.Time
	RequestCount  int
	LastReason    string
	LastPath      string
	FirstRequest  time.Time
	LastRequest   time.Time
	DebounceCause string // "quiet" or "max_delay"
}

// DebouncerConfig tunes rebuild coalescing.
type DebouncerConfig struct {
	QuietWindow time.Duration // emit after this long without a new request
	MaxDelay    time.Duration // never postpone longer than this
}

// Debouncer coalesces bursts of rebuild requests into single rebuilds.
//
// Saving a file in most editors produces several filesystem events in quick
// succession; the quiet window folds those into one rebuild, while the max
// delay guarantees a steady stream of edits still rebuilds periodically.
type Debouncer struct {
	cfg DebouncerConfig
	in  chan RebuildRequest
	out chan Rebuild

	mu             sync.Mutex
	pending        bool
	firstRequestAt time.Time
	lastRequestAt  time.Time
	lastReason     string
	lastPath       string
	requestCount   int
}

// NewDebouncer creates a Debouncer. Both windows must be positive.
func NewDebouncer(cfg DebouncerConfig) (*Debouncer, error) {
	if cfg.QuietWindow <= 0 {
		return nil, errors.New("quiet window must be > 0")
	}
	if cfg.MaxDelay <= 0 {
		return nil, errors.New("max delay must be > 0")
	}
	return &Debouncer{
		cfg: cfg,
		in:  make(chan RebuildRequest, 64),
		out: make(chan Rebuild, 1),
	}, nil
}

// Request submits a rebuild request. Non-blocking; requests during a full
// buffer are folded into the pending batch by the run loop anyway.
func (d *Debouncer) Request(req RebuildRequest) {
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}
	select {
	case d.in <- req:
	default:
	}
}

// Rebuilds returns the channel of coalesced rebuild triggers.
func (d *Debouncer) Rebuilds() <-chan Rebuild { return d.out }

// Run processes requests until the context is canceled.
func (d *Debouncer) Run(ctx context.Context) error {
	quietTimer := newStoppedTimer()
	maxTimer := newStoppedTimer()

	var quietC, maxC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case req := <-d.in:
			first := d.onRequest(req)

			resetTimer(quietTimer, d.cfg.QuietWindow)
			quietC = quietTimer.C
			if first {
				resetTimer(maxTimer, d.cfg.MaxDelay)
				maxC = maxTimer.C
			}

		case <-quietC:
			d.emit(ctx, "quiet")
			quietC = nil
			maxC = nil

		case <-maxC:
			d.emit(ctx, "max_delay")
			quietC = nil
			maxC = nil
		}
	}
}

// onRequest records a request and reports whether it started a new batch.
func (d *Debouncer) onRequest(req RebuildRequest) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	first := !d.pending
	if first {
		d.pending = true
		d.firstRequestAt = req.RequestedAt
		d.requestCount = 0
	}
	d.lastRequestAt = req.RequestedAt
	d.lastReason = req.Reason
	d.lastPath = req.Path
	d.requestCount++
	return first
}

func (d *Debouncer) emit(ctx context.Context, cause string) {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	evt := Rebuild{
		TriggeredAt:   time.Now(),
		RequestCount:  d.requestCount,
		LastReason:    d.lastReason,
		LastPath:      d.lastPath,
		FirstRequest:  d.firstRequestAt,
		LastRequest:   d.lastRequestAt,
		DebounceCause: cause,
	}
	d.pending = false
	d.mu.Unlock()

	select {
	case d.out <- evt:
	case <-ctx.Done():
	}
}

func newStoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	return t
}

func resetTimer(t *time.Timer, after time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(after)
}
