package server

import (
	"errors"
	"testing"
	"time"
)

func TestResultCache_Expiry(t *testing.T) {
	now := time.Unix(1700000000, 0)
	c := NewResultCache(time.Second)
	c.now = func() time.Time { return now }

	fetches := 0
	fetch := func() ([]string, error) {
		fetches++
		return []string{"work"}, nil
	}
	args := map[string]interface{}{"search": "x"}

	c.Lookup("todo", args, fetch)
	c.Lookup("todo", map[string]interface{}{"search": "x"}, fetch)
	if fetches != 1 {
		t.Fatalf("expected 1 fetch within TTL, got %d", fetches)
	}

	now = now.Add(2 * time.Second)
	c.Lookup("todo", args, fetch)
	if fetches != 2 {
		t.Errorf("expected refetch after TTL, got %d fetches", fetches)
	}
}

func TestResultCache_KeyIncludesTool(t *testing.T) {
	c := NewResultCache(time.Minute)
	c.Lookup("todo", nil, func() ([]string, error) { return []string{"a"}, nil })
	got, _ := c.Lookup("today", nil, func() ([]string, error) { return []string{"b"}, nil })
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("tools must not share entries, got %v", got)
	}
}

func TestResultCache_ErrorsNotCached(t *testing.T) {
	c := NewResultCache(time.Minute)
	boom := errors.New("boom")
	if _, err := c.Lookup("tags", nil, func() ([]string, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed fetch was cached")
	}
}

func TestResultCache_InvalidateAll(t *testing.T) {
	c := NewResultCache(time.Minute)
	c.Lookup("tags", nil, func() ([]string, error) { return []string{"a"}, nil })
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Len())
	}
	c.InvalidateAll()
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
}
