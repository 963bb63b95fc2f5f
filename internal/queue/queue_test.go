package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ricirt/booking-backend/internal/domain"
	"github.com/ricirt/booking-backend/internal/queue"
)

func TestQueue_BasicEnqueueDequeue(t *testing.T) {
	q := queue.New()
	ctx := context.Background()

	if err := q.Enqueue(queue.Item{NotificationID: 1}); err != nil {
		t.Fatal(err)
	}

	got, ok := q.Dequeue(ctx)
	if !ok {
		t.Fatal("expected item, got nothing")
	}
	if got.NotificationID != 1 {
		t.Fatalf("expected id=1, got %d", got.NotificationID)
	}
}

func TestQueue_FIFO(t *testing.T) {
	q := queue.New()
	ctx := context.Background()

	_ = q.Enqueue(queue.Item{NotificationID: 1})
	_ = q.Enqueue(queue.Item{NotificationID: 2})

	first, _ := q.Dequeue(ctx)
	second, _ := q.Dequeue(ctx)
	if first.NotificationID != 1 || second.NotificationID != 2 {
		t.Fatalf("expected FIFO order 1,2, got %d,%d", first.NotificationID, second.NotificationID)
	}
}

func TestQueue_ContextCancellation(t *testing.T) {
	q := queue.New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Dequeue(ctx)
		done <- ok
	}()

	cancel()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected ok=false after context cancellation")
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not return after context cancellation")
	}
}

func TestQueue_ErrQueueFullWhenSaturated(t *testing.T) {
	q := queue.New()
	for i := 0; i < 5000; i++ {
		if err := q.Enqueue(queue.Item{NotificationID: int64(i)}); err != nil {
			t.Fatalf("unexpected error filling queue at %d: %v", i, err)
		}
	}
	if err := q.Enqueue(queue.Item{NotificationID: 9999}); err != domain.ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestQueue_ConcurrentEnqueueDequeue(t *testing.T) {
	q := queue.New()

	const producers = 5
	const itemsPerProducer = 100
	const total = producers * itemsPerProducer

	received := make(chan struct{}, total)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var consumerDone sync.WaitGroup
	consumerDone.Add(1)
	go func() {
		defer consumerDone.Done()
		for {
			_, ok := q.Dequeue(ctx)
			if !ok {
				return
			}
			received <- struct{}{}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < itemsPerProducer; j++ {
				_ = q.Enqueue(queue.Item{NotificationID: 1})
			}
		}()
	}
	wg.Wait()

	for i := 0; i < total; i++ {
		select {
		case <-received:
		case <-ctx.Done():
			t.Fatalf("timeout: only received %d/%d items", i, total)
		}
	}
	cancel()
	consumerDone.Wait()
}

func TestQueue_Depth(t *testing.T) {
	q := queue.New()
	_ = q.Enqueue(queue.Item{NotificationID: 1})
	_ = q.Enqueue(queue.Item{NotificationID: 2})

	if d := q.Depth(); d != 2 {
		t.Fatalf("expected depth 2, got %d", d)
	}
}
