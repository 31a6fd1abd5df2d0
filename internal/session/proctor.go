package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/instaprep/instaprep-backend/internal/ai"
)

// Proctor periodically compares the latest webcam frame against the baseline
// snapshot. Checks are skipped, not queued, while a previous check is still
// in flight, so a slow verification service never piles up requests.
type Proctor struct {
	matcher  ai.FaceMatcher
	gate     *MediaGate
	interval time.Duration
	events   chan<- Event
	log      zerolog.Logger

	mu      sync.Mutex
	frame   string
	inCheck atomic.Bool
	stop    chan struct{}
	once    sync.Once
}

func NewProctor(matcher ai.FaceMatcher, gate *MediaGate, interval time.Duration, events chan<- Event, log zerolog.Logger) *Proctor {
	return &Proctor{
		matcher:  matcher,
		gate:     gate,
		interval: interval,
		events:   events,
		stop:     make(chan struct{}),
		log:      log.With().Str("component", "proctor").Logger(),
	}
}

// SetFrame stores the most recent webcam frame. Only the latest frame is
// kept; stale frames are worthless for verification.
func (p *Proctor) SetFrame(imageB64 string) {
	p.mu.Lock()
	p.frame = imageB64
	p.mu.Unlock()
}

// Start launches the periodic check loop.
func (p *Proctor) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.stop:
				return
			case <-ticker.C:
				p.check(ctx)
			}
		}
	}()
}

// Stop halts the check loop. Idempotent.
func (p *Proctor) Stop() {
	p.once.Do(func() { close(p.stop) })
}

func (p *Proctor) check(ctx context.Context) {
	if !p.inCheck.CompareAndSwap(false, true) {
		return
	}
	baseline := p.gate.Baseline()
	p.mu.Lock()
	frame := p.frame
	p.mu.Unlock()

	if baseline == "" || frame == "" {
		p.inCheck.Store(false)
		return
	}

	go func() {
		defer p.inCheck.Store(false)
		result := p.matcher.Compare(ctx, baseline, frame)
		if result.Match {
			return
		}
		select {
		case <-p.stop:
			// session already past active; drop the result
		case p.events <- Event{Kind: EventFaceMismatch, Reason: mismatchReason(result.Error), At: time.Now()}:
		}
	}()
}

func mismatchReason(detail string) string {
	if detail == "" {
		return "Face does not match the registered snapshot"
	}
	return detail
}
