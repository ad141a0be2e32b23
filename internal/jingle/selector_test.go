package jingle

import (
	"testing"

	"github.com/friendsincode/gjallar/internal/player"
)

func jingles(ids ...string) []player.MediaRef {
	out := make([]player.MediaRef, len(ids))
	for i, id := range ids {
		out[i] = player.MediaRef{ID: id, Path: "/jingles/" + id + ".mp3"}
	}
	return out
}

func TestSelectorEmptyPool(t *testing.T) {
	s := NewSeededSelector(1)
	if _, ok := s.Next(nil); ok {
		t.Fatal("selection from empty pool reported ok")
	}
}

func TestSelectorSingleItem(t *testing.T) {
	s := NewSeededSelector(1)
	pool := jingles("only")
	for i := 0; i < 5; i++ {
		ref, ok := s.Next(pool)
		if !ok || ref.ID != "only" {
			t.Fatalf("pick %d = %+v ok=%v", i, ref, ok)
		}
	}
}

func TestSelectorStaysWithinPool(t *testing.T) {
	s := NewSeededSelector(42)
	pool := jingles("a", "b", "c")
	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		ref, ok := s.Next(pool)
		if !ok {
			t.Fatal("selection from non-empty pool not ok")
		}
		seen[ref.ID] = true
	}
	for _, j := range pool {
		if !seen[j.ID] {
			t.Errorf("jingle %s never selected in 200 picks", j.ID)
		}
	}
}

func TestPoolRemove(t *testing.T) {
	p := NewPool()
	p.Replace(jingles("a", "b"))
	if !p.Remove("a") {
		t.Fatal("remove existing jingle failed")
	}
	if p.Remove("a") {
		t.Fatal("remove of missing jingle reported success")
	}
	if p.Len() != 1 {
		t.Fatalf("pool len = %d, want 1", p.Len())
	}
}
