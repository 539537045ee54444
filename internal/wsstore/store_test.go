package wsstore

import (
	"testing"
	"time"
)

func TestParseTarget(t *testing.T) {
	cases := []struct {
		target       string
		wantDriver   string
		wantDSN      string
		wantRecognized bool
	}{
		{"sqlite:/tmp/ws.db", "sqlite", "/tmp/ws.db", true},
		{"postgres://user@host/db", "postgres", "//user@host/db", true},
		{"mysql:user:pass@tcp(host)/db", "mysql", "user:pass@tcp(host)/db", true},
		{"sqlserver://host/db", "sqlserver", "//host/db", true},
		{"/tmp/plain-file.apl", "", "", false},
		{"C:/windows/path.apl", "", "", false},
	}
	for _, c := range cases {
		driver, dsn, ok := ParseTarget(c.target)
		if ok != c.wantRecognized {
			t.Fatalf("%q: ok=%v want %v", c.target, ok, c.wantRecognized)
		}
		if ok && (driver != c.wantDriver || dsn != c.wantDSN) {
			t.Fatalf("%q: got driver=%q dsn=%q", c.target, driver, dsn)
		}
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store, err := Open("sqlite", "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := store.Save("WS-1", "∇Z←DOUBLE B\nZ←B+B\n∇", []byte("image-v1"), now); err != nil {
		t.Fatalf("Save 1: %v", err)
	}
	if err := store.Save("WS-1", "∇Z←TRIPLE B\nZ←B+B+B\n∇", []byte("image-v2"), now.Add(time.Minute)); err != nil {
		t.Fatalf("Save 2: %v", err)
	}

	latest, err := store.Load("WS-1", 0)
	if err != nil {
		t.Fatalf("Load latest: %v", err)
	}
	if string(latest.Image) != "image-v2" {
		t.Fatalf("got %q, want image-v2", latest.Image)
	}

	older, err := store.Load("WS-1", 2)
	if err != nil {
		t.Fatalf("Load @2: %v", err)
	}
	if string(older.Image) != "image-v1" {
		t.Fatalf("got %q, want image-v1", older.Image)
	}
}

func TestSaveHistoryCap(t *testing.T) {
	store, err := Open("sqlite", "file::memory:?cache=shared&_history=1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < maxHistory+3; i++ {
		if err := store.Save("WS-H", "src", []byte{byte(i)}, now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}
	hist, err := store.History("WS-H")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != maxHistory {
		t.Fatalf("got %d entries, want %d", len(hist), maxHistory)
	}
}
