package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jpalmerr/tcup/internal/slot"
)

// fixedClock returns a clock that always reports t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// failingSlots is a slot.Store whose writes always fail.
type failingSlots struct {
	slot.Store
}

func (failingSlots) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

// countingSlots counts Set calls on the wrapped store.
type countingSlots struct {
	slot.Store
	mu   sync.Mutex
	sets int
}

func (c *countingSlots) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.Store.Set(ctx, key, value)
}

func openStore(t *testing.T, slots slot.Store, opts ...Option) *Store {
	t.Helper()
	st, err := Open(context.Background(), slots, opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return st
}

func TestOpen_SeedsWhenSlotMissing(t *testing.T) {
	st := openStore(t, slot.NewMemoryStore())

	got := st.List()
	if len(got) != 2 {
		t.Fatalf("List() = %d records, want 2 seeds", len(got))
	}
	if got[0].ID != 1 || got[0].Threshold != 85.5 {
		t.Errorf("seed[0] = %+v, want id 1 threshold 85.5", got[0])
	}
	if got[1].ID != 2 || got[1].Threshold != 90.0 {
		t.Errorf("seed[1] = %+v, want id 2 threshold 90", got[1])
	}
}

func TestOpen_SeedsAreNotPersisted(t *testing.T) {
	slots := slot.NewMemoryStore()
	_ = openStore(t, slots)

	if _, err := slots.Get(context.Background(), DefaultKey); !errors.Is(err, slot.ErrNotFound) {
		t.Errorf("slot written on open, Get() error = %v", err)
	}
}

func TestOpen_Fallbacks(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantCount int
	}{
		{name: "empty value", raw: "", wantCount: 2},
		{name: "json null", raw: "null", wantCount: 2},
		{name: "malformed", raw: "[{", wantCount: 2},
		{name: "wrong shape", raw: `{"id":1}`, wantCount: 2},
		{name: "empty array is kept", raw: "[]", wantCount: 0},
		{name: "persisted records", raw: `[{"id":7,"name":"a","description":"","threshold":1,"created_at":"2024-01-01T00:00:00Z"}]`, wantCount: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := slot.NewMemoryStore()
			_ = slots.Set(context.Background(), DefaultKey, []byte(tt.raw))

			st := openStore(t, slots)
			if got := len(st.List()); got != tt.wantCount {
				t.Errorf("List() = %d records, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestAdd_Scenario(t *testing.T) {
	st := openStore(t, slot.NewMemoryStore())
	before := st.List()

	cfg, err := st.Add(context.Background(), Draft{Name: "X", Description: "d", Threshold: 50.0})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	after := st.List()
	if len(after) != len(before)+1 {
		t.Fatalf("List() = %d records, want %d", len(after), len(before)+1)
	}

	last := after[len(after)-1]
	if last.Threshold != 50.0 {
		t.Errorf("Threshold = %v, want 50", last.Threshold)
	}
	if last.ID != cfg.ID {
		t.Errorf("last ID = %d, returned ID = %d", last.ID, cfg.ID)
	}
	for _, c := range before {
		if c.ID == cfg.ID {
			t.Errorf("ID %d is not unique", cfg.ID)
		}
	}

	// created_at survives a JSON round trip as a valid timestamp
	data, _ := json.Marshal(last)
	var raw map[string]any
	_ = json.Unmarshal(data, &raw)
	ts, ok := raw["created_at"].(string)
	if !ok {
		t.Fatalf("created_at missing from %s", data)
	}
	if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
		t.Errorf("created_at %q does not parse: %v", ts, err)
	}
}

func TestAdd_RoundTripThroughStorage(t *testing.T) {
	slots := slot.NewMemoryStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st := openStore(t, slots, WithClock(fixedClock(now)))

	added, err := st.Add(context.Background(), Draft{Name: "disk", Description: "disk usage", Threshold: 70})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	reloaded := openStore(t, slots)
	got, ok := reloaded.Get(added.ID)
	if !ok {
		t.Fatalf("reloaded store missing id %d", added.ID)
	}
	if got.ID != now.UnixMilli() {
		t.Errorf("ID = %d, want %d", got.ID, now.UnixMilli())
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, now)
	}
	if got.Name != "disk" || got.Threshold != 70 {
		t.Errorf("reloaded record = %+v", got)
	}
	// seeds are persisted together with the first mutation
	if len(reloaded.List()) != 3 {
		t.Errorf("reloaded List() = %d records, want 3", len(reloaded.List()))
	}
}

func TestAdd_IDsUniqueWithinSameMillisecond(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	st := openStore(t, slot.NewMemoryStore(), WithClock(fixedClock(now)))

	seen := make(map[int64]bool)
	for _, c := range st.List() {
		seen[c.ID] = true
	}
	for i := 0; i < 5; i++ {
		cfg, err := st.Add(context.Background(), Draft{Name: "n"})
		if err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if seen[cfg.ID] {
			t.Fatalf("duplicate ID %d", cfg.ID)
		}
		seen[cfg.ID] = true
	}
}

func TestAdd_PersistFailureLeavesCollectionUnchanged(t *testing.T) {
	st := openStore(t, failingSlots{slot.NewMemoryStore()})
	before := st.List()

	if _, err := st.Add(context.Background(), Draft{Name: "x"}); err == nil {
		t.Fatal("Add() expected error")
	}
	if !reflect.DeepEqual(st.List(), before) {
		t.Errorf("collection changed after failed Add")
	}
}

func TestUpdate_ReplacesInPlace(t *testing.T) {
	slots := slot.NewMemoryStore()
	st := openStore(t, slots)
	orig, _ := st.Get(1)

	ok, err := st.Update(context.Background(), MonitorConfig{
		ID:          1,
		Name:        "CPU",
		Description: "changed",
		Threshold:   75,
		CreatedAt:   time.Unix(0, 0),
	})
	if err != nil || !ok {
		t.Fatalf("Update() = %v, %v; want true, nil", ok, err)
	}

	list := st.List()
	if list[0].ID != 1 {
		t.Fatalf("position changed: list[0].ID = %d", list[0].ID)
	}
	if list[0].Threshold != 75 || list[0].Description != "changed" {
		t.Errorf("record not replaced: %+v", list[0])
	}
	if !list[0].CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("CreatedAt = %v, want preserved %v", list[0].CreatedAt, orig.CreatedAt)
	}

	reloaded := openStore(t, slots)
	if got, _ := reloaded.Get(1); got.Threshold != 75 {
		t.Errorf("update not persisted: %+v", got)
	}
}

func TestUpdate_UnknownIDIsNoOp(t *testing.T) {
	slots := &countingSlots{Store: slot.NewMemoryStore()}
	st := openStore(t, slots)
	before := st.List()

	ok, err := st.Update(context.Background(), MonitorConfig{ID: 999, Name: "ghost"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if ok {
		t.Error("Update() = true for unknown id")
	}
	if !reflect.DeepEqual(st.List(), before) {
		t.Error("collection changed by no-op update")
	}
	if slots.sets != 0 {
		t.Errorf("no-op update wrote %d times", slots.sets)
	}
}

func TestDelete(t *testing.T) {
	slots := slot.NewMemoryStore()
	st := openStore(t, slots)

	if err := st.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	for _, c := range st.List() {
		if c.ID == 1 {
			t.Fatal("List() still contains deleted id")
		}
	}

	reloaded := openStore(t, slots)
	if _, ok := reloaded.Get(1); ok {
		t.Error("delete not persisted")
	}
	if len(reloaded.List()) != 1 {
		t.Errorf("reloaded List() = %d, want 1", len(reloaded.List()))
	}
}

func TestDelete_UnknownIDStillPersists(t *testing.T) {
	slots := &countingSlots{Store: slot.NewMemoryStore()}
	st := openStore(t, slots)
	before := st.List()

	if err := st.Delete(context.Background(), 12345); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !reflect.DeepEqual(st.List(), before) {
		t.Error("collection changed by deleting unknown id")
	}
	if slots.sets != 1 {
		t.Errorf("Delete() wrote %d times, want 1", slots.sets)
	}
}

func TestDelete_AllLeavesEmptyCollection(t *testing.T) {
	slots := slot.NewMemoryStore()
	st := openStore(t, slots)

	for _, c := range st.List() {
		if err := st.Delete(context.Background(), c.ID); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
	}

	// an explicitly emptied collection does not fall back to seeds
	reloaded := openStore(t, slots)
	if n := len(reloaded.List()); n != 0 {
		t.Errorf("reloaded List() = %d records, want 0", n)
	}
}

func TestFindByName(t *testing.T) {
	st := openStore(t, slot.NewMemoryStore())

	cfg, ok := st.FindByName("内存使用率告警")
	if !ok || cfg.ID != 2 {
		t.Errorf("FindByName() = %+v, %v", cfg, ok)
	}
	if _, ok := st.FindByName("nope"); ok {
		t.Error("FindByName(nope) = true")
	}
}

func TestList_ReturnsCopy(t *testing.T) {
	st := openStore(t, slot.NewMemoryStore())

	list := st.List()
	list[0].Name = "mutated"

	if got, _ := st.Get(1); got.Name == "mutated" {
		t.Error("List() exposed internal slice")
	}
}

func TestConcurrentAdds(t *testing.T) {
	st := openStore(t, slot.NewMemoryStore())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = st.Add(context.Background(), Draft{Name: "c"})
		}()
	}
	wg.Wait()

	list := st.List()
	if len(list) != 22 {
		t.Fatalf("List() = %d records, want 22", len(list))
	}
	seen := make(map[int64]bool, len(list))
	for _, c := range list {
		if seen[c.ID] {
			t.Fatalf("duplicate ID %d", c.ID)
		}
		seen[c.ID] = true
	}
}
