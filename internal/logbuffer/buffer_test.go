package logbuffer

import (
	"testing"
	"time"
)

func TestRingOverwritesOldest(t *testing.T) {
	b := New(3)
	for i, msg := range []string{"one", "two", "three", "four"} {
		b.Add(LogEntry{Timestamp: time.Now().Add(time.Duration(i) * time.Second), Message: msg})
	}

	all := b.GetAll()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0].Message != "two" || all[2].Message != "four" {
		t.Fatalf("entries = %v", all)
	}
}

func TestQueryFilters(t *testing.T) {
	b := New(10)
	b.Add(LogEntry{Level: "info", Component: "playout", Message: "now playing"})
	b.Add(LogEntry{Level: "error", Component: "playout", Message: "playback failed"})
	b.Add(LogEntry{Level: "info", Component: "api", Message: "request served"})

	got := b.Query(QueryParams{Component: "playout"})
	if len(got) != 2 {
		t.Fatalf("component filter returned %d entries", len(got))
	}

	got = b.Query(QueryParams{Level: "error"})
	if len(got) != 1 || got[0].Message != "playback failed" {
		t.Fatalf("level filter = %v", got)
	}

	got = b.Query(QueryParams{Search: "Playing"})
	if len(got) != 1 {
		t.Fatalf("search filter returned %d entries", len(got))
	}
}

func TestWriterParsesZerologJSON(t *testing.T) {
	b := New(10)
	w := NewWriter(b, nil)

	line := []byte(`{"level":"warn","component":"schedule","message":"fixed time fired","time":"2026-03-14T12:00:00Z"}`)
	if _, err := w.Write(line); err != nil {
		t.Fatal(err)
	}

	all := b.GetAll()
	if len(all) != 1 {
		t.Fatalf("len = %d, want 1", len(all))
	}
	e := all[0]
	if e.Level != "warn" || e.Component != "schedule" || e.Message != "fixed time fired" {
		t.Fatalf("entry = %+v", e)
	}
}
