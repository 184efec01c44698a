package progress_test

import (
	"os"
	"testing"
	"time"

	"github.com/p-n-ai/pai-finance/internal/platform/cache"
	"github.com/p-n-ai/pai-finance/internal/progress"
)

func TestMemoryStore_LoadMissingReturnsFresh(t *testing.T) {
	store := progress.NewMemoryStore()

	s, err := store.Load(t.Context(), "abc")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.ID != "abc" || len(s.Learned) != 0 {
		t.Errorf("Load() = %+v, want fresh state", s)
	}
	if store.Len() != 0 {
		t.Error("Load() should not create a session")
	}
}

func TestMemoryStore_SaveLoad(t *testing.T) {
	store := progress.NewMemoryStore()
	ctx := t.Context()

	s, _ := store.Load(ctx, "abc")
	s.MarkLearned("CurrentRatio")
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Mutating after Save must not leak into the store.
	s.MarkLearned("QuickRatio")

	got, err := store.Load(ctx, "abc")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Learned) != 1 || got.Learned[0] != "CurrentRatio" {
		t.Errorf("Learned = %v, want [CurrentRatio]", got.Learned)
	}
}

func TestMemoryStore_RequiresID(t *testing.T) {
	store := progress.NewMemoryStore()

	if _, err := store.Load(t.Context(), ""); err == nil {
		t.Error("Load(\"\") should fail")
	}
	if err := store.Save(t.Context(), &progress.LearnerState{}); err == nil {
		t.Error("Save() without id should fail")
	}
	if err := store.Save(t.Context(), nil); err == nil {
		t.Error("Save(nil) should fail")
	}
}

func TestRedisStore_Live(t *testing.T) {
	url := os.Getenv("LEARN_TEST_CACHE_URL")
	if url == "" {
		t.Skip("LEARN_TEST_CACHE_URL not set")
	}

	ctx := t.Context()
	c, err := cache.New(ctx, url)
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	defer c.Close()

	store := progress.NewRedisStore(c, time.Minute)
	id := "test-" + t.Name()
	defer c.Client.Del(ctx, cache.Key("session", id))

	s, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s.MarkLearned("CurrentRatio")
	s.RecordAttempt("CurrentRatio", progress.Score{Correct: 2, Total: 3}, time.Now())
	s.RecordItemResult("CR_Q1", true)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !got.IsLearned("CurrentRatio") || len(got.Attempts) != 1 || !got.ItemResults["CR_Q1"] {
		t.Errorf("Load() = %+v, want saved state", got)
	}
}
