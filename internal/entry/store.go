package entry

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Store collects entries from all extraction paths and deduplicates them by
// translation id. Insertion order is preserved so repeated runs produce the
// same output ordering. Safe for concurrent inserts.
type Store struct {
	mu      sync.Mutex
	order   []string
	byID    map[string]*Record
	merged  int
	dropped int
}

// Record is one deduplicated entry plus the context metadata accumulated from
// every place the same text was seen.
type Record struct {
	Entry
	// ContextPaths is the set of distinct observed context paths, in the
	// order they were first seen. The embedded Entry keeps the first one.
	ContextPaths [][]string  `json:"context_paths,omitempty"`
	LineRanges   []LineRange `json:"line_ranges,omitempty"`
	// Occurrences counts how many times the text was encountered across all
	// files and extraction paths.
	Occurrences int `json:"occurrences"`
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[string]*Record)}
}

// Insert adds an entry, merging into the first-seen record when the
// translation id already exists. RawText, ProcessedText and the placeholder
// map of the first-seen entry are never replaced.
func (s *Store) Insert(e Entry) {
	if e.TranslationID == "" {
		log.Warn().Str("text", e.RawText).Msg("Entry without translation id dropped")
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[e.TranslationID]
	if !ok {
		rec = &Record{Entry: e, Occurrences: 1}
		rec.ContextPaths = appendPath(nil, e.ContextPath)
		rec.LineRanges = []LineRange{e.Lines}
		s.byID[e.TranslationID] = rec
		s.order = append(s.order, e.TranslationID)
		return
	}

	rec.Occurrences++
	rec.ContextPaths = appendPath(rec.ContextPaths, e.ContextPath)
	rec.LineRanges = append(rec.LineRanges, e.Lines)
	// A technical classification from one path must not hide text another
	// path recognized as translatable.
	if rec.Type == Technical && e.Type != Technical {
		rec.Type = e.Type
	}
	if rec.Character == "" {
		rec.Character = e.Character
	}
	s.merged++
}

// Entries returns all records in insertion order, including technical ones.
func (s *Store) Entries() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Translatable returns the externally visible set: insertion-ordered records
// with technical entries filtered out.
func (s *Store) Translatable() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Record, 0, len(s.order))
	for _, id := range s.order {
		if rec := s.byID[id]; rec.Translatable() {
			out = append(out, rec)
		}
	}
	return out
}

// Get looks up a record by translation id.
func (s *Store) Get(id string) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	return rec, ok
}

// Len reports the number of distinct translation ids in the store.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// Merged reports how many inserts were folded into existing records.
func (s *Store) Merged() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merged
}

// appendPath adds path to the set of observed paths unless an equal path is
// already present.
func appendPath(paths [][]string, path []string) [][]string {
	if len(path) == 0 {
		return paths
	}
	for _, p := range paths {
		if equalPath(p, path) {
			return paths
		}
	}
	cp := make([]string, len(path))
	copy(cp, path)
	return append(paths, cp)
}

func equalPath(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
