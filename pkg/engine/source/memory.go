package source

import (
	"context"
	"sync"

	"kestrel-hq/verdict/pkg/rule/ast"
)

// MemorySource is an in-memory ruleset source, useful for tests and for
// embedding rulesets built in code.
type MemorySource struct {
	mu       sync.RWMutex
	rulesets []*ast.Ruleset
	watchers []chan Event
}

// NewMemorySource creates a new in-memory ruleset source.
func NewMemorySource(rulesets ...*ast.Ruleset) *MemorySource {
	return &MemorySource{
		rulesets: rulesets,
	}
}

// Load returns the rulesets stored in memory.
func (s *MemorySource) Load(ctx context.Context) ([]*ast.Ruleset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Return a copy to prevent external modification
	rulesets := make([]*ast.Ruleset, len(s.rulesets))
	copy(rulesets, s.rulesets)
	return rulesets, nil
}

// Watch returns a channel that receives one modified event per SetRulesets
// call. The channel is closed when the context is cancelled.
func (s *MemorySource) Watch(ctx context.Context) (<-chan Event, error) {
	events := make(chan Event, 1)

	s.mu.Lock()
	s.watchers = append(s.watchers, events)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()

		// Close under the lock so SetRulesets never sends on a
		// closed channel.
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == events {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		close(events)
	}()

	return events, nil
}

// SetRulesets replaces the stored rulesets and notifies watchers.
func (s *MemorySource) SetRulesets(rulesets []*ast.Ruleset) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rulesets = rulesets

	for _, w := range s.watchers {
		select {
		case w <- Event{Type: EventModified, Path: "memory"}:
		default:
			// Channel full: the queued event already triggers a
			// reload that reads current state.
		}
	}
}
