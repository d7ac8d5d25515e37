package watchlist

import (
	"reflect"
	"testing"
)

func TestIsWatched(t *testing.T) {
	s := NewSet("bitcoin", "ethereum")
	if !IsWatched("bitcoin", s) {
		t.Fatal("bitcoin should be watched")
	}
	if IsWatched("dogecoin", s) {
		t.Fatal("dogecoin should not be watched")
	}
	if IsWatched("bitcoin", nil) {
		t.Fatal("nil set watches nothing")
	}
}

func TestToggleAddsAndRemoves(t *testing.T) {
	s := NewSet("bitcoin")

	added := Toggle("ethereum", s)
	if !IsWatched("ethereum", added) {
		t.Fatal("toggle should add an absent id")
	}

	removed := Toggle("bitcoin", s)
	if IsWatched("bitcoin", removed) {
		t.Fatal("toggle should remove a present id")
	}
}

func TestToggleTwiceRestoresOriginal(t *testing.T) {
	s := NewSet("bitcoin", "ethereum")
	twice := Toggle("solana", Toggle("solana", s))
	if !reflect.DeepEqual(s, twice) {
		t.Fatalf("double toggle changed the set: %v vs %v", s, twice)
	}
}

func TestToggleDoesNotMutateInput(t *testing.T) {
	s := NewSet("bitcoin")
	_ = Toggle("bitcoin", s)
	_ = Toggle("ethereum", s)
	if !IsWatched("bitcoin", s) || IsWatched("ethereum", s) {
		t.Fatalf("input set was mutated: %v", s)
	}
}
