package kv

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dokzlo13/headsetd/internal/db"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "kv.sqlite"))
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return New(database.DB)
}

func TestStore_SetGet(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"string", "G733", "G733"},
		{"number", 42, float64(42)},
		{"bool", true, true},
		{"map", map[string]any{"level": 15}, map[string]any{"level": float64(15)}},
	}

	s := openStore(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Set(tt.name, tt.value, 0); err != nil {
				t.Fatalf("Set() error: %v", err)
			}
			got, err := s.Get(tt.name)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if m, ok := tt.want.(map[string]any); ok {
				gm, ok := got.(map[string]any)
				if !ok || gm["level"] != m["level"] {
					t.Errorf("Get() = %v, want %v", got, tt.want)
				}
				return
			}
			if got != tt.want {
				t.Errorf("Get() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	s := openStore(t)
	_ = s.Set("k", 1, 0)
	_ = s.Set("k", 2, 0)

	got, _ := s.Get("k")
	if got != float64(2) {
		t.Errorf("Get() = %v, want 2", got)
	}
}

func TestStore_Expiry(t *testing.T) {
	s := openStore(t)
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	if err := s.Set("short", "x", time.Minute); err != nil {
		t.Fatal(err)
	}
	_ = s.Set("forever", "y", 0)

	if got, _ := s.Get("short"); got != "x" {
		t.Errorf("Get() before expiry = %v", got)
	}

	now = now.Add(2 * time.Minute)
	if got, _ := s.Get("short"); got != nil {
		t.Errorf("Get() after expiry = %v, want nil", got)
	}
	keys, _ := s.Keys()
	if len(keys) != 1 || keys[0] != "forever" {
		t.Errorf("Keys() = %v, want [forever]", keys)
	}
}

func TestStore_DeleteAndCleanup(t *testing.T) {
	s := openStore(t)
	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	_ = s.Set("a", 1, 0)
	_ = s.Set("b", 1, time.Second)

	deleted, err := s.Delete("a")
	if err != nil || !deleted {
		t.Errorf("Delete(a) = %v, %v", deleted, err)
	}
	if deleted, _ := s.Delete("a"); deleted {
		t.Error("second Delete(a) should report false")
	}

	now = now.Add(time.Hour)
	n, err := s.CleanupExpired()
	if err != nil || n != 1 {
		t.Errorf("CleanupExpired() = %d, %v, want 1", n, err)
	}
}
