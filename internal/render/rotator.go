package render

import (
	"sync"
	"time"
)

// Rotator advances a carousel's active slide on a fixed interval. It never runs a
// timer for fewer than two slides.
type Rotator struct {
	mu        sync.Mutex
	slides    int
	interval  time.Duration
	active    int
	running   bool
	stop      chan struct{}
	onAdvance func(active int)
}

// NewRotator creates a stopped rotator at slide 0.
func NewRotator(slides int, interval time.Duration, onAdvance func(active int)) *Rotator {
	return &Rotator{slides: slides, interval: interval, onAdvance: onAdvance}
}

// Start launches the timer. It reports false, and starts nothing, when there are
// fewer than two slides, no interval, or the rotator already runs.
func (r *Rotator) Start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running || r.slides < 2 || r.interval <= 0 {
		return false
	}
	r.running = true
	r.stop = make(chan struct{})
	go r.loop(r.stop)
	return true
}

func (r *Rotator) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			if !r.running {
				r.mu.Unlock()
				return
			}
			r.active = (r.active + 1) % r.slides
			active := r.active
			onAdvance := r.onAdvance
			r.mu.Unlock()

			if onAdvance != nil {
				onAdvance(active)
			}
		}
	}
}

// Advance moves to the next slide immediately, wrapping around.
func (r *Rotator) Advance() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.slides > 0 {
		r.active = (r.active + 1) % r.slides
	}
	return r.active
}

// Stop halts the timer. It does not wait for an in-flight advance callback.
func (r *Rotator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return
	}
	r.running = false
	close(r.stop)
}

// Running reports whether the timer is active.
func (r *Rotator) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Active returns the current slide index.
func (r *Rotator) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Slides returns the slide count the rotator wraps at.
func (r *Rotator) Slides() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slides
}
