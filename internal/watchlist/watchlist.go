// Package watchlist implements pure set-membership logic over coin ids.
package watchlist

// Set is an immutable-by-convention collection of watched coin ids.
// Operations return fresh sets and never mutate their input, keeping the
// contract consistent with the rest of the pure-function core.
type Set map[string]struct{}

// NewSet builds a set from coin ids.
func NewSet(coinIDs ...string) Set {
	s := make(Set, len(coinIDs))
	for _, id := range coinIDs {
		s[id] = struct{}{}
	}
	return s
}

// IsWatched reports membership. Used for the UI toggle state.
func IsWatched(coinID string, s Set) bool {
	_, ok := s[coinID]
	return ok
}

// Toggle adds the id if absent and removes it if present, returning a new
// set. Toggling twice yields a set equal to the original.
func Toggle(coinID string, s Set) Set {
	next := make(Set, len(s)+1)
	for id := range s {
		next[id] = struct{}{}
	}
	if IsWatched(coinID, s) {
		delete(next, coinID)
	} else {
		next[coinID] = struct{}{}
	}
	return next
}
