// Package parallel runs independent row bands of a render target on a fixed
// set of worker goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Band is a half-open row range [Y0, Y1) of a render target.
type Band struct {
	Y0, Y1 int
}

// Height returns the number of rows in the band.
func (b Band) Height() int {
	return b.Y1 - b.Y0
}

// Pool is a fixed set of goroutines that shade bands of a target.
//
// Fragment invocations never depend on each other, so bands may be shaded in
// any order. Writes to one band never touch rows of another.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	workers int
	queue   chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	// mu is held shared while bands are queued and exclusively by Close,
	// so nothing is queued after done is closed.
	mu      sync.RWMutex
	running atomic.Bool
}

// NewPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		workers: workers,
		queue:   make(chan func(), workers*4),
		done:    make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			p.drainQueue()
			return
		case work := <-p.queue:
			work()
		}
	}
}

// drainQueue runs the work still queued when the pool closes.
func (p *Pool) drainQueue() {
	for {
		select {
		case work := <-p.queue:
			work()
		default:
			return
		}
	}
}

// Split divides height rows into at most n bands of near-equal size, each at
// least minRows tall (the last band may be shorter).
func Split(height, n, minRows int) []Band {
	if height <= 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	if minRows < 1 {
		minRows = 1
	}
	rows := (height + n - 1) / n
	if rows < minRows {
		rows = minRows
	}
	bands := make([]Band, 0, (height+rows-1)/rows)
	for y := 0; y < height; y += rows {
		bands = append(bands, Band{Y0: y, Y1: min(y+rows, height)})
	}
	return bands
}

// ForEachBand splits height rows into bands and calls fn for each of them,
// returning once every band is done. After Close, or with a single band, fn
// runs on the calling goroutine.
func (p *Pool) ForEachBand(height, minRows int, fn func(Band)) {
	bands := Split(height, p.workers, minRows)
	if len(bands) == 0 {
		return
	}
	if len(bands) == 1 {
		fn(bands[0])
		return
	}

	p.mu.RLock()
	if !p.running.Load() {
		p.mu.RUnlock()
		for _, b := range bands {
			fn(b)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(bands))
	for _, b := range bands {
		p.queue <- func() {
			defer wg.Done()
			fn(b)
		}
	}
	p.mu.RUnlock()
	wg.Wait()
}

// Close stops the workers once the bands already queued are done. Close is
// safe to call multiple times.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still dispatches to its workers.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}
