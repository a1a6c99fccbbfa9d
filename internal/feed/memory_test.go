package feed

import (
	"sync"
	"testing"
	"time"
)

func ptr(v float64) *float64 { return &v }

func TestNewMemoryFeed(t *testing.T) {
	f := NewMemoryFeed()
	if len(f.GetAll()) != 0 {
		t.Errorf("GetAll() = %d items, want 0", len(f.GetAll()))
	}
}

func TestMemoryFeed_UpdateReplacesByProbe(t *testing.T) {
	f := NewMemoryFeed()

	f.Update(Sample{Probe: "cpu", Status: "ok", Value: ptr(10), ResponseTimeMs: 100})
	f.Update(Sample{Probe: "cpu", Status: "breach", Value: ptr(95), ResponseTimeMs: 300})

	all := f.GetAll()
	if len(all) != 1 {
		t.Fatalf("GetAll() = %d items, want 1", len(all))
	}
	if all[0].Status != "breach" || *all[0].Value != 95 {
		t.Errorf("GetAll()[0] = %+v, want latest breach sample", all[0])
	}
	if all[0].ResponseTimeMs != 300 {
		t.Errorf("ResponseTimeMs = %d, want 300", all[0].ResponseTimeMs)
	}
}

func TestMemoryFeed_GetAllSorted(t *testing.T) {
	f := NewMemoryFeed()

	f.Update(Sample{Probe: "network"})
	f.Update(Sample{Probe: "cpu"})
	f.Update(Sample{Probe: "memory"})

	all := f.GetAll()
	want := []string{"cpu", "memory", "network"}
	if len(all) != len(want) {
		t.Fatalf("GetAll() = %d items, want %d", len(all), len(want))
	}
	for i, name := range want {
		if all[i].Probe != name {
			t.Errorf("GetAll()[%d].Probe = %q, want %q", i, all[i].Probe, name)
		}
	}
}

func TestMemoryFeed_Subscribe(t *testing.T) {
	f := NewMemoryFeed()
	ch := f.Subscribe()

	go f.Update(Sample{Probe: "cpu", Status: "ok"})

	select {
	case s := <-ch:
		if s.Probe != "cpu" {
			t.Errorf("received Probe = %q, want cpu", s.Probe)
		}
	case <-time.After(time.Second):
		t.Error("subscriber did not receive update")
	}
}

func TestMemoryFeed_MultipleSubscribers(t *testing.T) {
	f := NewMemoryFeed()

	ch1 := f.Subscribe()
	ch2 := f.Subscribe()
	ch3 := f.Subscribe()

	go f.Update(Sample{Probe: "cpu"})

	received := 0
	timeout := time.After(time.Second)
	for received < 3 {
		select {
		case <-ch1:
			received++
		case <-ch2:
			received++
		case <-ch3:
			received++
		case <-timeout:
			t.Fatalf("only received %d/3 updates", received)
		}
	}
}

func TestMemoryFeed_Unsubscribe(t *testing.T) {
	f := NewMemoryFeed()

	ch := f.Subscribe()
	f.Unsubscribe(ch)
	f.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after Unsubscribe()")
	}
	if n := f.SubscriberCount(); n != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", n)
	}
}

func TestMemoryFeed_SlowSubscriberDoesNotBlock(t *testing.T) {
	f := NewMemoryFeed()

	_ = f.Subscribe()
	ch2 := f.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			f.Update(Sample{Probe: "cpu"})
		}
		close(done)
	}()

	go func() {
		for range ch2 {
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Error("Update() blocked on slow subscriber")
	}
}

func TestMemoryFeed_ConcurrentAccess(t *testing.T) {
	f := NewMemoryFeed()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.Update(Sample{Probe: "cpu", Status: "ok"})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = f.GetAll()
			}
		}()
		go func() {
			defer wg.Done()
			ch := f.Subscribe()
			time.Sleep(10 * time.Millisecond)
			f.Unsubscribe(ch)
		}()
	}
	wg.Wait()
}
