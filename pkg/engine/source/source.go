package source

import (
	"context"

	"kestrel-hq/verdict/pkg/rule/ast"
)

// Source provides rulesets to a Registry.
type Source interface {
	// Load loads all rulesets from the source.
	Load(ctx context.Context) ([]*ast.Ruleset, error)

	// Watch watches for ruleset changes and sends events on the returned
	// channel. The channel is closed when the context is cancelled.
	Watch(ctx context.Context) (<-chan Event, error)
}

// Event represents a ruleset change event.
type Event struct {
	// Type is the event type ("created", "modified", "deleted").
	Type EventType

	// Path identifies what changed, typically a file path.
	Path string

	// Error is any error that occurred while watching.
	Error error
}

// EventType represents the type of ruleset change event.
type EventType string

const (
	EventCreated  EventType = "created"
	EventModified EventType = "modified"
	EventDeleted  EventType = "deleted"
)
