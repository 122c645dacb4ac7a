package xpbd

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum item count to use parallel processing.
// Below this, single-threaded is faster due to dispatch overhead.
const parallelThreshold = 256

// rangeFunc processes items [start, end).
type rangeFunc func(start, end int)

type workChunk struct {
	start, end int
	fn         rangeFunc
}

// workerPool is a persistent pool executing range chunks. run blocks until
// every dispatched chunk completes, which is exactly the full barrier the
// solver needs between integration and the first batch and between every
// pair of successive batches: no batch N+1 read starts before all batch N
// writes have been joined.
type workerPool struct {
	numWorkers int

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newWorkerPool() *workerPool {
	return &workerPool{numWorkers: runtime.GOMAXPROCS(0)}
}

// start launches the persistent worker goroutines. Idempotent.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stop signals all workers to exit and waits for them. Idempotent.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run executes fn over [0, n) and returns once every chunk has completed.
// Small ranges run inline; the single-threaded path is also the fallback
// when the pool is not running.
func (p *workerPool) run(n int, fn rangeFunc) {
	if n <= 0 {
		return
	}
	if n < parallelThreshold || !p.running {
		fn(0, n)
		return
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end, fn: fn}
		dispatched++
	}

	// Join: the channel receive orders every worker write before the
	// caller proceeds.
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
