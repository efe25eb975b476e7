package vector

import (
	"context"
	"math"
	"testing"

	"issuepilot/internal/store"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	original := []float32{0.1, -0.5, 3.14159, 0, -1e10, 1e-10}

	decoded := Decode(Encode(original))
	if len(decoded) != len(original) {
		t.Fatalf("expected %d values, got %d", len(original), len(decoded))
	}
	for i := range original {
		if decoded[i] != original[i] {
			t.Errorf("index %d: expected %f, got %f", i, original[i], decoded[i])
		}
	}
}

func TestDecode_Empty(t *testing.T) {
	if Decode(nil) != nil {
		t.Error("expected nil for empty input")
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float32
		want    float32
		wantErr bool
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1, false},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1, false},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, false},
		{"zero_vector", []float32{0, 0}, []float32{1, 1}, 0, false},
		{"empty", nil, nil, 0, false},
		{"dimension_mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db, "test-model")
}

func TestSQLiteStore_UpsertAndQuery(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	embeddings := map[int][]float32{
		1: {1, 0, 0},
		2: {0.9, 0.1, 0},
		3: {0, 0, 1},
	}
	for n, e := range embeddings {
		if err := s.Upsert(ctx, n, "issue", "author", e); err != nil {
			t.Fatalf("Upsert(%d): %v", n, err)
		}
	}

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].IssueNumber != 1 {
		t.Errorf("expected best match issue 1, got %d", matches[0].IssueNumber)
	}
	if matches[1].IssueNumber != 2 {
		t.Errorf("expected second match issue 2, got %d", matches[1].IssueNumber)
	}
	if matches[0].Score < matches[1].Score {
		t.Error("expected matches sorted best first")
	}
}

func TestSQLiteStore_UpsertReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, 1, "old title", "a", []float32{1, 0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, 1, "new title", "a", []float32{0, 1}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	matches, err := s.Query(ctx, []float32{0, 1}, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match after replace, got %d", len(matches))
	}
	if matches[0].Title != "new title" {
		t.Errorf("expected updated title, got %q", matches[0].Title)
	}
	if matches[0].Score < 0.999 {
		t.Errorf("expected near-perfect score for updated embedding, got %f", matches[0].Score)
	}
}

func TestSQLiteStore_RejectsEmptyEmbedding(t *testing.T) {
	s := testStore(t)
	if err := s.Upsert(context.Background(), 1, "t", "a", nil); err == nil {
		t.Error("expected error for empty embedding")
	}
}

func TestSQLiteStore_SkipsMismatchedDimensions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.Upsert(ctx, 1, "old model", "a", []float32{1, 0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, 2, "new model", "a", []float32{1, 0, 0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	matches, err := s.Query(ctx, []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 1 || matches[0].IssueNumber != 2 {
		t.Errorf("expected only the matching-dimension embedding, got %v", matches)
	}
}

func TestSQLiteStore_Available(t *testing.T) {
	var nilStore *SQLiteStore
	if nilStore.Available() {
		t.Error("expected nil store to be unavailable")
	}
	if !testStore(t).Available() {
		t.Error("expected live store to be available")
	}
}
