package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gatekeep-ai/gatekeep/pkg/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "a", "b")
	db, err := Open(filepath.Join(nested, "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(nested); os.IsNotExist(err) {
		t.Errorf("parent directories not created: %s", nested)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := db.Migrate(); err != nil {
			t.Fatalf("Migrate #%d failed: %v", i+1, err)
		}
	}

	var version int
	if err := db.conn.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version != 1 {
		t.Errorf("schema version = %d, want 1", version)
	}
}

func TestRecordAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	c := &models.Consultation{
		Kind:     models.KindAsk,
		Persona:  "sentinel",
		Model:    "anthropic/claude-3.5-sonnet",
		Question: "Is this safe?",
		Context:  "public bucket",
		Response: "No.",
		Duration: 1500 * time.Millisecond,
	}
	if err := s.Record(ctx, c); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		t.Fatalf("Record did not assign ID/CreatedAt: %+v", c)
	}

	got, err := s.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Persona != "sentinel" || got.Kind != models.KindAsk || got.Context != "public bucket" || got.Response != "No." {
		t.Errorf("Get = %+v", got)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v", got.Duration)
	}
	if !got.CreatedAt.Equal(c.CreatedAt.UTC()) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, c.CreatedAt)
	}

	byPrefix, err := s.Get(ctx, c.ID[:8])
	if err != nil {
		t.Fatalf("Get by prefix failed: %v", err)
	}
	if byPrefix.ID != c.ID {
		t.Errorf("Get by prefix = %s, want %s", byPrefix.ID, c.ID)
	}
}

func TestGet_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	records := []struct {
		persona string
		offset  time.Duration
	}{
		{"auditor", 0},
		{"sentinel", time.Minute},
		{"auditor", 2 * time.Minute},
		{"guardian", 3 * time.Minute},
	}
	for _, r := range records {
		c := &models.Consultation{
			Kind:      models.KindAsk,
			Persona:   r.persona,
			Model:     "m",
			Question:  "q",
			CreatedAt: base.Add(r.offset),
		}
		if err := s.Record(ctx, c); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	tests := []struct {
		name     string
		limit    int
		persona  string
		wantLen  int
		wantLead string
	}{
		{"all", 0, "", 4, "guardian"},
		{"limited", 2, "", 2, "guardian"},
		{"by persona", 10, "auditor", 2, "auditor"},
		{"unknown persona", 10, "nobody", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.limit, tt.persona)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("List returned %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 0 && got[0].Persona != tt.wantLead {
				t.Errorf("first persona = %q, want %q", got[0].Persona, tt.wantLead)
			}
			for i := 1; i < len(got); i++ {
				if got[i].CreatedAt.After(got[i-1].CreatedAt) {
					t.Errorf("results not newest first at %d", i)
				}
			}
		})
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 4 {
		t.Errorf("Count = %d, want 4", n)
	}
}

func TestPrune(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	for _, age := range []time.Duration{time.Hour, 48 * time.Hour, 72 * time.Hour} {
		c := &models.Consultation{Kind: models.KindAsk, Persona: "p", Model: "m", Question: "q", CreatedAt: now.Add(-age)}
		if err := s.Record(ctx, c); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	removed, err := s.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune removed %d, want 2", removed)
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("Count after prune = %d, want 1", n)
	}
}

func TestRecord_Concurrent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &models.Consultation{Kind: models.KindTeamReview, Persona: "architect", Model: "m", Question: "q"}
			if err := s.Record(ctx, c); err != nil {
				t.Errorf("Record failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n, _ := s.Count(ctx); n != 10 {
		t.Errorf("Count = %d, want 10", n)
	}
}
