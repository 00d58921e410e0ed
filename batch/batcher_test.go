package batch

import (
	"sync"
	"testing"
	"time"

	"github.com/agentrt/core/task"
)

func TestBatcher_AddPersistsImmediately(t *testing.T) {
	var mu sync.Mutex
	var persisted []task.Message

	b := New(func(m task.Message) {
		mu.Lock()
		persisted = append(persisted, m)
		mu.Unlock()
	}, nil)

	b.Add(task.Message{ID: "1"})
	b.Add(task.Message{ID: "2"})

	mu.Lock()
	defer mu.Unlock()
	if len(persisted) != 2 {
		t.Fatalf("persisted = %d messages, want 2", len(persisted))
	}
}

func TestBatcher_FlushDeliversAccumulatedBatch(t *testing.T) {
	var delivered [][]task.Message
	var mu sync.Mutex

	b := New(nil, func(msgs []task.Message) {
		mu.Lock()
		delivered = append(delivered, msgs)
		mu.Unlock()
	})

	b.Add(task.Message{ID: "1"})
	b.Add(task.Message{ID: "2"})
	b.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(delivered))
	}
	if len(delivered[0]) != 2 {
		t.Fatalf("batch size = %d, want 2", len(delivered[0]))
	}
}

func TestBatcher_FlushOnEmptyIsNoop(t *testing.T) {
	calls := 0
	b := New(nil, func(msgs []task.Message) { calls++ })

	b.Flush()

	if calls != 0 {
		t.Fatalf("onBatch called %d times on an empty flush, want 0", calls)
	}
}

func TestBatcher_WindowDeliversWithoutExplicitFlush(t *testing.T) {
	delivered := make(chan []task.Message, 1)
	b := New(nil, func(msgs []task.Message) { delivered <- msgs })

	b.Add(task.Message{ID: "only"})

	select {
	case msgs := <-delivered:
		if len(msgs) != 1 {
			t.Fatalf("batch size = %d, want 1", len(msgs))
		}
	case <-time.After(Window * 5):
		t.Fatal("batch was never delivered by the coalescing window")
	}
}

func TestBatcher_SecondWindowStartsFresh(t *testing.T) {
	delivered := make(chan []task.Message, 2)
	b := New(nil, func(msgs []task.Message) { delivered <- msgs })

	b.Add(task.Message{ID: "first"})
	<-delivered

	b.Add(task.Message{ID: "second"})
	select {
	case msgs := <-delivered:
		if len(msgs) != 1 || msgs[0].ID != "second" {
			t.Fatalf("second batch = %+v, want one message with ID \"second\"", msgs)
		}
	case <-time.After(Window * 5):
		t.Fatal("second window never delivered")
	}
}
