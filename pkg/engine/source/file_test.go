package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

const validDoc = `
name: eligibility
version: "1.0"
rules:
  - name: adult
    when:
      fact: age
      operator: greaterThanOrEqual
      value: 18
`

const secondDoc = `
name: residency
version: "1.0"
rules:
  - name: served-country
    when:
      fact: country
      operator: in
      value: [USA, Canada]
`

const brokenDoc = `
name: broken
rules:
  - name: bad-operator
    when:
      fact: age
      operator: equals
      value: 18
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSource_Load_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "eligibility.yaml", validDoc)

	src := NewFileSource(path, nil)
	rulesets, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(rulesets) != 1 {
		t.Fatalf("len(rulesets) = %d, want 1", len(rulesets))
	}
	if rulesets[0].Name != "eligibility" {
		t.Errorf("Name = %q, want %q", rulesets[0].Name, "eligibility")
	}
	if rulesets[0].SourceFile != path {
		t.Errorf("SourceFile = %q, want %q", rulesets[0].SourceFile, path)
	}
}

func TestFileSource_Load_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "eligibility.yaml", validDoc)
	writeFile(t, dir, "residency.yml", secondDoc)
	writeFile(t, dir, "notes.txt", "not a ruleset")
	writeFile(t, dir, "broken.yaml", brokenDoc)

	src := NewFileSource(dir, nil)
	rulesets, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// The broken file is skipped, the .txt ignored.
	if len(rulesets) != 2 {
		t.Fatalf("len(rulesets) = %d, want 2", len(rulesets))
	}

	names := map[string]bool{}
	for _, rs := range rulesets {
		names[rs.Name] = true
	}
	if !names["eligibility"] || !names["residency"] {
		t.Errorf("loaded rulesets = %v, want eligibility and residency", names)
	}
}

func TestFileSource_Load_SingleFileInvalid(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.yaml", brokenDoc)

	src := NewFileSource(path, nil)
	if _, err := src.Load(context.Background()); err == nil {
		t.Fatal("Load() succeeded for an invalid single file, want error")
	}
}

func TestFileSource_Load_WithoutValidation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.yaml", brokenDoc)

	src := NewFileSource(path, nil).WithValidator(nil)
	rulesets, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(rulesets) != 1 {
		t.Fatalf("len(rulesets) = %d, want 1", len(rulesets))
	}
}

func TestFileSource_Load_MissingPath(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent"), nil)
	if _, err := src.Load(context.Background()); err == nil {
		t.Fatal("Load() succeeded for a missing path, want error")
	}
}

func TestFileSource_Load_SkipsHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "eligibility.yaml", validDoc)
	writeFile(t, dir, ".hidden.yaml", secondDoc)

	src := NewFileSource(dir, nil)
	rulesets, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(rulesets) != 1 {
		t.Fatalf("len(rulesets) = %d, want 1", len(rulesets))
	}
	if rulesets[0].Name != "eligibility" {
		t.Errorf("Name = %q, want %q", rulesets[0].Name, "eligibility")
	}
}

func TestFileSource_Watch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "eligibility.yaml", validDoc)

	src := NewFileSource(dir, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := src.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte(secondDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-events:
		if ev.Error != nil {
			t.Fatalf("event carried error: %v", ev.Error)
		}
		if filepath.Base(ev.Path) != "eligibility.yaml" {
			t.Errorf("event path = %q, want eligibility.yaml", ev.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event after file modification")
	}

	cancel()

	// The channel closes once the context is cancelled.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event channel not closed after cancel")
		}
	}
}

func TestFileSource_Watch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "eligibility.yaml", validDoc)

	src := NewFileSource(dir, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := src.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	writeFile(t, dir, "notes.txt", "scratch")
	writeFile(t, dir, ".hidden.yaml", secondDoc)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event for filtered file: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestFileSource_HasValidExtension(t *testing.T) {
	src := NewFileSource("rules/", nil)

	tests := []struct {
		ext   string
		valid bool
	}{
		{".yaml", true},
		{".yml", true},
		{".json", true},
		{".YAML", true},
		{".txt", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			if got := src.hasValidExtension(tt.ext); got != tt.valid {
				t.Errorf("hasValidExtension(%q) = %v, want %v", tt.ext, got, tt.valid)
			}
		})
	}
}

func TestEventType(t *testing.T) {
	tests := []struct {
		name string
		op   fsnotify.Op
		want EventType
	}{
		{name: "create", op: fsnotify.Create, want: EventCreated},
		{name: "write", op: fsnotify.Write, want: EventModified},
		{name: "remove", op: fsnotify.Remove, want: EventDeleted},
		{name: "rename", op: fsnotify.Rename, want: EventDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eventType(tt.op); got != tt.want {
				t.Errorf("eventType(%v) = %q, want %q", tt.op, got, tt.want)
			}
		})
	}
}
