package source

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"kestrel-hq/verdict/pkg/rule/ast"
)

// defaultDebounceInterval is the quiet period before a watch-triggered
// reload runs.
const defaultDebounceInterval = 100 * time.Millisecond

// Registry holds the rulesets loaded from a Source and serves them to
// evaluators. Updates swap the whole set atomically, so readers always see
// a consistent snapshot.
type Registry struct {
	source Source
	logger *slog.Logger

	debounceInterval time.Duration

	mu       sync.RWMutex
	rulesets map[string]*ast.Ruleset
	version  string
	loadTime time.Time
}

// NewRegistry creates an empty registry over the given source.
func NewRegistry(src Source, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		source:           src,
		logger:           logger.With("component", "registry"),
		debounceInterval: defaultDebounceInterval,
		rulesets:         make(map[string]*ast.Ruleset),
		loadTime:         time.Now(),
	}
}

// WithDebounceInterval replaces the quiet period used by WatchAndReload.
func (r *Registry) WithDebounceInterval(d time.Duration) *Registry {
	if d > 0 {
		r.debounceInterval = d
	}
	return r
}

// Load loads all rulesets from the source and replaces the current set.
func (r *Registry) Load(ctx context.Context) error {
	rulesets, err := r.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rulesets: %w", err)
	}

	if err := r.Replace(rulesets); err != nil {
		return err
	}

	r.logger.Info("rulesets loaded",
		"ruleset_count", len(rulesets),
		"version", r.Version(),
	)

	return nil
}

// Reload re-reads the source. The current set stays in place when the
// source fails, so a broken edit cannot empty a running registry.
func (r *Registry) Reload(ctx context.Context) error {
	previous := r.Version()

	if err := r.Load(ctx); err != nil {
		r.logger.Error("ruleset reload failed, keeping current set",
			"version", previous,
			"error", err,
		)
		return err
	}

	r.logger.Info("rulesets reloaded",
		"previous_version", previous,
		"version", r.Version(),
	)

	return nil
}

// Replace atomically replaces the entire ruleset collection.
func (r *Registry) Replace(rulesets []*ast.Ruleset) error {
	for _, rs := range rulesets {
		if rs == nil {
			return &RegistryError{Operation: "replace", Message: "ruleset cannot be nil"}
		}
		if rs.Name == "" {
			return &RegistryError{Operation: "replace", Message: "ruleset name cannot be empty"}
		}
	}

	byName := make(map[string]*ast.Ruleset, len(rulesets))
	for _, rs := range rulesets {
		if _, ok := byName[rs.Name]; ok {
			r.logger.Warn("duplicate ruleset name, keeping the later definition",
				"ruleset_name", rs.Name,
				"source_file", rs.SourceFile,
			)
		}
		byName[rs.Name] = rs
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rulesets = byName
	r.loadTime = time.Now()
	r.version = versionOf(byName)

	return nil
}

// Ruleset retrieves a ruleset by name.
func (r *Registry) Ruleset(name string) (*ast.Ruleset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rs, ok := r.rulesets[name]
	return rs, ok
}

// Rulesets retrieves all rulesets sorted by name.
func (r *Registry) Rulesets() []*ast.Ruleset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.rulesets))
	for name := range r.rulesets {
		names = append(names, name)
	}
	sort.Strings(names)

	rulesets := make([]*ast.Ruleset, 0, len(names))
	for _, name := range names {
		rulesets = append(rulesets, r.rulesets[name])
	}
	return rulesets
}

// Names returns the sorted names of all held rulesets.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.rulesets))
	for name := range r.rulesets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of held rulesets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rulesets)
}

// Version returns a hash that changes whenever the held set changes.
func (r *Registry) Version() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.version
}

// LoadTime returns when the held set was last replaced.
func (r *Registry) LoadTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.loadTime
}

// WatchAndReload watches the source and reloads the registry after each
// debounced burst of change events. It blocks until the context is
// cancelled or the source's event channel closes.
func (r *Registry) WatchAndReload(ctx context.Context) error {
	events, err := r.source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch source: %w", err)
	}

	debounce := NewDebouncer(r.debounceInterval)
	defer debounce.Stop()

	r.logger.Info("watching source for changes",
		"debounce_ms", r.debounceInterval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("watch stopped")
			return nil

		case ev, ok := <-events:
			if !ok {
				r.logger.Info("watch stopped, event channel closed")
				return nil
			}

			if ev.Error != nil {
				r.logger.Error("watch error", "error", ev.Error)
				continue
			}

			r.logger.Debug("change event",
				"type", string(ev.Type),
				"path", ev.Path,
			)

			debounce.Trigger(func() {
				// Reload failures keep the current set and are
				// already logged.
				_ = r.Reload(ctx)
			})
		}
	}
}

// versionOf hashes ruleset identities into a short version string.
func versionOf(rulesets map[string]*ast.Ruleset) string {
	h := sha256.New()

	names := make([]string, 0, len(rulesets))
	for name := range rulesets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rs := rulesets[name]
		h.Write([]byte(rs.Name))
		h.Write([]byte(rs.Version))
		h.Write([]byte(rs.SourceFile))
		fmt.Fprintf(h, "%d", len(rs.Rules))
	}

	return fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// RegistryError represents a failed registry operation.
type RegistryError struct {
	// Ruleset is the name of the ruleset involved, if any.
	Ruleset string

	// Operation is the operation that failed.
	Operation string

	// Message describes the failure.
	Message string
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	if e.Ruleset != "" {
		return fmt.Sprintf("registry error for ruleset %q during %s: %s", e.Ruleset, e.Operation, e.Message)
	}
	return fmt.Sprintf("registry error during %s: %s", e.Operation, e.Message)
}
