package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"minigames/internal/domain"
)

func collect(t *testing.T, n *MemoryNotifier, roomID string) (*sync.Mutex, *[]int64, Subscription) {
	t.Helper()
	var mu sync.Mutex
	var versions []int64
	sub, err := n.Subscribe(context.Background(), roomID, func(r domain.Room) {
		mu.Lock()
		versions = append(versions, r.Version)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	return &mu, &versions, sub
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition never held")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestMemoryNotifierDeliversInOrder(t *testing.T) {
	n := NewMemoryNotifier()
	mu, versions, sub := collect(t, n, "r1")
	defer sub.Unsubscribe()

	for v := int64(1); v <= 5; v++ {
		n.Publish(context.Background(), domain.Room{ID: "r1", Version: v})
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(*versions) == 5
	})

	mu.Lock()
	defer mu.Unlock()
	for i, v := range *versions {
		if v != int64(i+1) {
			t.Fatalf("versions = %v; want ascending 1..5", *versions)
		}
	}
}

func TestMemoryNotifierDropsStaleVersions(t *testing.T) {
	n := NewMemoryNotifier()
	mu, versions, sub := collect(t, n, "r1")
	defer sub.Unsubscribe()

	ctx := context.Background()
	n.Publish(ctx, domain.Room{ID: "r1", Version: 3})
	n.Publish(ctx, domain.Room{ID: "r1", Version: 2}) // late duplicate
	n.Publish(ctx, domain.Room{ID: "r1", Version: 3}) // redelivery
	n.Publish(ctx, domain.Room{ID: "r1", Version: 4})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(*versions) >= 2 && (*versions)[len(*versions)-1] == 4
	})

	mu.Lock()
	defer mu.Unlock()
	if len(*versions) != 2 || (*versions)[0] != 3 || (*versions)[1] != 4 {
		t.Fatalf("versions = %v; want [3 4]", *versions)
	}
}

func TestMemoryNotifierScopesByRoom(t *testing.T) {
	n := NewMemoryNotifier()
	mu, versions, sub := collect(t, n, "r1")
	defer sub.Unsubscribe()

	ctx := context.Background()
	n.Publish(ctx, domain.Room{ID: "other", Version: 1})
	n.Publish(ctx, domain.Room{ID: "r1", Version: 1})

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(*versions) == 1
	})

	time.Sleep(10 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(*versions) != 1 {
		t.Fatalf("received %d deliveries; want 1", len(*versions))
	}
}

func TestMemoryNotifierUnsubscribeStopsDelivery(t *testing.T) {
	n := NewMemoryNotifier()
	mu, versions, sub := collect(t, n, "r1")

	ctx := context.Background()
	n.Publish(ctx, domain.Room{ID: "r1", Version: 1})
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(*versions) == 1
	})

	sub.Unsubscribe()
	sub.Unsubscribe() // safe to call twice

	n.Publish(ctx, domain.Room{ID: "r1", Version: 2})
	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(*versions) != 1 {
		t.Fatalf("delivery after unsubscribe: %v", *versions)
	}
}

func TestMemoryNotifierConcurrentPublishUnsubscribe(t *testing.T) {
	n := NewMemoryNotifier()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		sub, err := n.Subscribe(ctx, "r1", func(domain.Room) {})
		if err != nil {
			t.Fatalf("Subscribe: %v", err)
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			for v := int64(1); v <= 50; v++ {
				n.Publish(ctx, domain.Room{ID: "r1", Version: v})
			}
		}()
		go func() {
			defer wg.Done()
			sub.Unsubscribe()
		}()
	}
	wg.Wait()
}
