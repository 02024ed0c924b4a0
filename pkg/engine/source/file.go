package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"kestrel-hq/verdict/pkg/rule/ast"
	"kestrel-hq/verdict/pkg/rule/parser"
	"kestrel-hq/verdict/pkg/rule/validator"
)

// defaultExtensions are the file extensions a FileSource loads and watches.
var defaultExtensions = []string{".yaml", ".yml", ".json"}

// FileSource loads rulesets from YAML or JSON files on disk.
type FileSource struct {
	path       string
	logger     *slog.Logger
	parser     *parser.Parser
	validator  *validator.Validator
	extensions []string
	skipHidden bool
}

// NewFileSource creates a new file-based ruleset source.
// The path can be either a single file or a directory. If it's a
// directory, all files with a recognized extension are loaded.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{
		path:       path,
		logger:     logger.With("component", "file_source"),
		parser:     parser.NewParser(),
		validator:  validator.NewValidator(),
		extensions: defaultExtensions,
		skipHidden: true,
	}
}

// WithParser replaces the parser, allowing stricter parse options.
func (s *FileSource) WithParser(p *parser.Parser) *FileSource {
	if p != nil {
		s.parser = p
	}
	return s
}

// WithValidator replaces the validator. Passing nil disables validation,
// which hands out whatever parses.
func (s *FileSource) WithValidator(v *validator.Validator) *FileSource {
	s.validator = v
	return s
}

// WithExtensions replaces the set of file extensions to load and watch.
func (s *FileSource) WithExtensions(exts ...string) *FileSource {
	if len(exts) > 0 {
		s.extensions = exts
	}
	return s
}

// Load loads all rulesets from the configured path.
func (s *FileSource) Load(ctx context.Context) ([]*ast.Ruleset, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %q: %w", s.path, err)
	}

	var rulesets []*ast.Ruleset

	if info.IsDir() {
		rulesets, err = s.loadDirectory(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		rs, err := s.loadFile(s.path)
		if err != nil {
			return nil, err
		}
		rulesets = []*ast.Ruleset{rs}
	}

	s.logger.Info("loaded rulesets from source",
		"path", s.path,
		"ruleset_count", len(rulesets),
	)

	return rulesets, nil
}

// loadDirectory loads all ruleset files from a directory. Files that fail
// to parse or validate are skipped with a warning so one bad file cannot
// take down the rest of the set.
func (s *FileSource) loadDirectory(ctx context.Context) ([]*ast.Ruleset, error) {
	var rulesets []*ast.Ruleset

	err := filepath.Walk(s.path, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		base := filepath.Base(path)
		if s.skipHidden && strings.HasPrefix(base, ".") && path != s.path {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		if !s.hasValidExtension(filepath.Ext(path)) {
			return nil
		}

		rs, err := s.loadFile(path)
		if err != nil {
			s.logger.Warn("failed to load ruleset file, skipping",
				"path", path,
				"error", err,
			)
			return nil
		}

		rulesets = append(rulesets, rs)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %q: %w", s.path, err)
	}

	return rulesets, nil
}

// loadFile loads a single ruleset file.
func (s *FileSource) loadFile(path string) (*ast.Ruleset, error) {
	rs, err := s.parser.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ruleset file %q: %w", path, err)
	}

	if s.validator != nil {
		if err := s.validator.Validate(rs); err != nil {
			return nil, fmt.Errorf("invalid ruleset file %q: %w", path, err)
		}
	}

	s.logger.Debug("loaded ruleset file",
		"path", path,
		"ruleset_name", rs.Name,
		"rule_count", len(rs.Rules),
	)

	return rs, nil
}

// Watch watches the configured path and sends an Event for each relevant
// file system change. The channel is closed when the context is cancelled.
func (s *FileSource) Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := s.addPath(watcher, s.path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch path: %w", err)
	}

	events := make(chan Event)

	go func() {
		defer close(events)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !s.shouldProcessEvent(ev) {
					continue
				}

				s.logger.Debug("file event detected",
					"path", ev.Name,
					"op", ev.Op.String(),
				)

				select {
				case events <- Event{Type: eventType(ev.Op), Path: ev.Name}:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Error("file watcher error", "error", err)

				select {
				case events <- Event{Error: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	s.logger.Info("file watcher started", "path", s.path)

	return events, nil
}

// addPath registers a file or directory tree with the watcher.
func (s *FileSource) addPath(watcher *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return watcher.Add(path)
	}

	return filepath.Walk(path, func(sub string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if s.skipHidden && strings.HasPrefix(filepath.Base(sub), ".") && sub != path {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			if err := watcher.Add(sub); err != nil {
				return fmt.Errorf("failed to watch directory %q: %w", sub, err)
			}
			s.logger.Debug("watching directory", "path", sub)
		}

		return nil
	})
}

// shouldProcessEvent filters out events that cannot affect loaded rulesets.
func (s *FileSource) shouldProcessEvent(ev fsnotify.Event) bool {
	if ev.Op&fsnotify.Chmod == fsnotify.Chmod {
		return false
	}

	if !s.hasValidExtension(filepath.Ext(ev.Name)) {
		return false
	}

	if s.skipHidden && strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}

	return true
}

// hasValidExtension checks if a file extension should be loaded.
func (s *FileSource) hasValidExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, valid := range s.extensions {
		if ext == strings.ToLower(valid) {
			return true
		}
	}
	return false
}

// eventType maps an fsnotify operation to an Event type.
func eventType(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return EventCreated
	case op&fsnotify.Remove == fsnotify.Remove, op&fsnotify.Rename == fsnotify.Rename:
		return EventDeleted
	default:
		return EventModified
	}
}
