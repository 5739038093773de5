package lightdetect

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/thieflike/taskqueue"
)

// Worker samples capture requests on a background goroutine and publishes
// results through a task queue drained by the simulation goroutine.
//
// It takes one request at a time: the next request is not dequeued until
// the previous result has been published.
type Worker struct {
	requests chan CaptureRequest
	queue    *taskqueue.Queue
	publish  func(Result)
	poll     time.Duration
	startup  time.Duration
	logger   *slog.Logger

	stopChan  chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once

	running   atomic.Bool
	stopped   atomic.Bool
	idle      atomic.Bool // previous result published
	processed atomic.Int64
	dropped   atomic.Int64
}

// NewWorker creates a stopped worker with a request queue of the given
// capacity. publish runs on the goroutine that drains queue.
func NewWorker(capacity int, poll, startup time.Duration, queue *taskqueue.Queue, publish func(Result), logger *slog.Logger) *Worker {
	if capacity < 1 {
		capacity = 1
	}
	if poll <= 0 {
		poll = 10 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		requests: make(chan CaptureRequest, capacity),
		queue:    queue,
		publish:  publish,
		poll:     poll,
		startup:  startup,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
	w.idle.Store(true)
	return w
}

// Start launches the worker goroutine. It does nothing after Stop or when
// already started.
func (w *Worker) Start() {
	w.startOnce.Do(func() {
		if w.stopped.Load() {
			return
		}
		w.running.Store(true)
		w.wg.Add(1)
		go w.run()
		w.logger.Info("light worker started", "queue_capacity", cap(w.requests))
	})
}

// Running reports whether the worker goroutine is live.
func (w *Worker) Running() bool {
	return w.running.Load()
}

// Enqueue offers a request without blocking. It returns false when the
// queue is full or the worker is stopped.
func (w *Worker) Enqueue(req CaptureRequest) bool {
	if w.stopped.Load() {
		return false
	}
	select {
	case w.requests <- req:
		return true
	default:
		w.dropped.Add(1)
		return false
	}
}

// Pending returns the number of queued requests.
func (w *Worker) Pending() int {
	return len(w.requests)
}

// Processed returns the number of requests sampled so far.
func (w *Worker) Processed() int64 {
	return w.processed.Load()
}

// Dropped returns the number of requests rejected by a full queue.
func (w *Worker) Dropped() int64 {
	return w.dropped.Load()
}

// Stop signals the worker and waits for its goroutine to exit. Results
// posted but not yet drained are discarded. Safe to call more than once,
// and before Start.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.stopped.Store(true)
		close(w.stopChan)
		w.wg.Wait()
		if w.running.Swap(false) {
			w.logger.Info("light worker stopped",
				"processed", w.processed.Load(),
				"dropped", w.dropped.Load(),
			)
		}
	})
}

func (w *Worker) run() {
	defer w.wg.Done()

	startup := time.NewTimer(w.startup)
	select {
	case <-w.stopChan:
		startup.Stop()
		return
	case <-startup.C:
	}

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		if w.idle.Load() {
			w.processNext()
		}
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) processNext() {
	select {
	case req := <-w.requests:
		w.idle.Store(false)
		res := req.Process()
		w.processed.Add(1)
		w.queue.Post(func() {
			if w.stopped.Load() {
				return
			}
			w.publish(res)
			w.idle.Store(true)
		})
	default:
	}
}
