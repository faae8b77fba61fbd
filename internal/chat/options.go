package chat

import (
	"strings"
	"sync"

	"github.com/Stage2Sec/frenzy/internal/block"
)

// OptionStore holds pre-computed option sets for external selects,
// keyed by action id. Options handlers search these sets instead of
// recomputing them per keystroke.
type OptionStore struct {
	mu         sync.Mutex
	byActionID map[string][]*block.Option
}

// NewOptionStore creates an empty option store.
func NewOptionStore() *OptionStore {
	return &OptionStore{
		byActionID: make(map[string][]*block.Option),
	}
}

// Store saves the option set for an action id, replacing any previous
// set.
func (s *OptionStore) Store(actionID string, options []*block.Option) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byActionID[actionID] = options
}

// Get returns the stored option set for an action id, nil if none.
func (s *OptionStore) Get(actionID string) []*block.Option {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byActionID[actionID]
}

// maxOptions is the platform's hard cap on returned option lists.
const maxOptions = 100

// SearchOptions ranks options against a type-ahead query: options whose
// label starts with the query (case-insensitive) come first in storage
// order, followed by options that merely contain it, without
// duplicates. If the combined count exceeds the platform cap only the
// starts-with set is returned.
func SearchOptions(options []*block.Option, query string) []*block.Option {
	q := strings.ToLower(query)

	var startsWith []*block.Option
	inStartsWith := make(map[*block.Option]bool)
	for _, o := range options {
		if strings.HasPrefix(strings.ToLower(o.Text.Text), q) {
			startsWith = append(startsWith, o)
			inStartsWith[o] = true
		}
	}

	var includes []*block.Option
	for _, o := range options {
		if inStartsWith[o] {
			continue
		}
		if strings.Contains(strings.ToLower(o.Text.Text), q) {
			includes = append(includes, o)
		}
	}

	if len(startsWith)+len(includes) > maxOptions {
		return startsWith
	}
	return append(startsWith, includes...)
}
