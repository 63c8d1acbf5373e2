package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Evils19/BioMasa/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(id string, ts time.Time) types.AnalysisResult {
	return types.AnalysisResult{
		ID:          id,
		Title:       "Test pasture",
		Description: "A test record",
		Timestamp:   ts,
		Components: types.BiomassComponents{
			DryGreen:  120.5,
			DryClover: 30.25,
			DryDead:   15.75,
			DryTotal:  166.5,
			Gdm:       102.4,
		},
		ImageBase64:     "aW1hZ2U=",
		Recommendations: "Graze soon",
		Confidence:      0.87,
	}
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)

	want := sampleResult("id-1", time.Now().UTC().Truncate(time.Millisecond))
	if err := s.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Get("id-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.Title != want.Title || got.Recommendations != want.Recommendations {
		t.Errorf("text fields lost: %+v", got)
	}
	if got.Components != want.Components {
		t.Errorf("components = %+v, want %+v", got.Components, want.Components)
	}
	if got.Confidence != want.Confidence {
		t.Errorf("confidence = %f", got.Confidence)
	}
	if got.ImageBase64 != want.ImageBase64 {
		t.Error("stored image lost")
	}
	if !got.Timestamp.Equal(want.Timestamp) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, want.Timestamp)
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	s := newTestStore(t)

	first := sampleResult("id-1", time.Now().UTC())
	if err := s.Save(first); err != nil {
		t.Fatal(err)
	}

	second := first
	second.Title = "Updated title"
	if err := s.Save(second); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get("id-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Updated title" {
		t.Errorf("row not replaced: %q", got.Title)
	}
}

func TestListNewestFirst(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		if err := s.Save(sampleResult(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatal(err)
		}
	}

	results, err := s.List(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].ID != "new" || results[2].ID != "old" {
		t.Errorf("wrong order: %s, %s, %s", results[0].ID, results[1].ID, results[2].ID)
	}

	// List omits the stored image payload
	if results[0].ImageBase64 != "" {
		t.Error("List must not load image payloads")
	}

	limited, err := s.List(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limit ignored: got %d results", len(limited))
	}
}

func TestListOrdersSubSecondTimestamps(t *testing.T) {
	s := newTestStore(t)

	// Trimmed fractional seconds would make ".5Z" sort after ".52Z"
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := sampleResult("older", base.Add(500*time.Millisecond))
	newer := sampleResult("newer", base.Add(520*time.Millisecond))

	for _, r := range []types.AnalysisResult{older, newer} {
		if err := s.Save(r); err != nil {
			t.Fatal(err)
		}
	}

	results, err := s.List(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].ID != "newer" || results[1].ID != "older" {
		t.Errorf("wrong order: %s, %s", results[0].ID, results[1].ID)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get("nope"); err == nil {
		t.Error("expected error for missing id")
	}
}
