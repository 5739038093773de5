package taskqueue

import (
	"sync"
	"testing"
)

func TestDrainRunsInOrder(t *testing.T) {
	q := New()
	var got []int
	for i := 0; i < 5; i++ {
		q.Post(func() { got = append(got, i) })
	}

	if n := q.Drain(); n != 5 {
		t.Errorf("expected 5 tasks drained, got %d", n)
	}
	for i, v := range got {
		if v != i {
			t.Errorf("expected task %d at position %d, got %d", i, i, v)
		}
	}
	if n := q.Drain(); n != 0 {
		t.Errorf("expected empty drain, got %d", n)
	}
}

func TestPostDuringDrainRunsNextTick(t *testing.T) {
	q := New()
	ran := 0
	q.Post(func() {
		ran++
		q.Post(func() { ran++ })
	})

	q.Drain()
	if ran != 1 {
		t.Errorf("expected 1 task on first drain, got %d", ran)
	}
	if q.Len() != 1 {
		t.Errorf("expected 1 pending task, got %d", q.Len())
	}
	q.Drain()
	if ran != 2 {
		t.Errorf("expected 2 tasks after second drain, got %d", ran)
	}
}

func TestPostNilIgnored(t *testing.T) {
	q := New()
	q.Post(nil)
	if q.Len() != 0 {
		t.Errorf("expected nil task to be ignored, got %d pending", q.Len())
	}
}

func TestConcurrentPost(t *testing.T) {
	q := New()
	const producers, perProducer = 8, 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Post(func() {})
			}
		}()
	}

	total := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		total += q.Drain()
		select {
		case <-done:
			total += q.Drain()
			if total != producers*perProducer {
				t.Errorf("expected %d tasks, got %d", producers*perProducer, total)
			}
			return
		default:
		}
	}
}
