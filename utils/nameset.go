package utils

import "sort"

// NameSet tracks the site names accepted during one crawl run. It is
// insert-only and owned by a single goroutine, so it carries no lock.
type NameSet struct {
	seen map[string]struct{}
}

// NewNameSet creates a NameSet seeded with the given names.
func NewNameSet(names ...string) *NameSet {
	s := &NameSet{seen: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.seen[n] = struct{}{}
	}
	return s
}

// Add returns true if the name was newly added, false if already present.
func (s *NameSet) Add(name string) bool {
	if _, exists := s.seen[name]; exists {
		return false
	}
	s.seen[name] = struct{}{}
	return true
}

// Contains reports whether name has already been accepted.
func (s *NameSet) Contains(name string) bool {
	_, exists := s.seen[name]
	return exists
}

// Size returns the number of unique names tracked.
func (s *NameSet) Size() int {
	return len(s.seen)
}

// Names returns the tracked names in sorted order, for checkpoints.
func (s *NameSet) Names() []string {
	out := make([]string, 0, len(s.seen))
	for n := range s.seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
