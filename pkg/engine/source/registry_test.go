package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"kestrel-hq/verdict/pkg/rule/ast"
)

// failingSource always fails to load.
type failingSource struct{}

func (failingSource) Load(ctx context.Context) ([]*ast.Ruleset, error) {
	return nil, errors.New("source unavailable")
}

func (failingSource) Watch(ctx context.Context) (<-chan Event, error) {
	events := make(chan Event)
	go func() {
		<-ctx.Done()
		close(events)
	}()
	return events, nil
}

func TestRegistry_LoadAndGet(t *testing.T) {
	src := NewMemorySource(testRuleset("eligibility"), testRuleset("residency"))
	reg := NewRegistry(src, nil)

	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if reg.Count() != 2 {
		t.Errorf("Count() = %d, want 2", reg.Count())
	}

	rs, ok := reg.Ruleset("eligibility")
	if !ok {
		t.Fatal("Ruleset(eligibility) not found")
	}
	if rs.Name != "eligibility" {
		t.Errorf("Name = %q, want %q", rs.Name, "eligibility")
	}

	if _, ok := reg.Ruleset("absent"); ok {
		t.Error("Ruleset(absent) found, want miss")
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "eligibility" || names[1] != "residency" {
		t.Errorf("Names() = %v, want [eligibility residency]", names)
	}

	if reg.Version() == "" {
		t.Error("Version() is empty after load")
	}
}

func TestRegistry_Rulesets_Sorted(t *testing.T) {
	src := NewMemorySource(testRuleset("zeta"), testRuleset("alpha"))
	reg := NewRegistry(src, nil)

	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	rulesets := reg.Rulesets()
	if len(rulesets) != 2 {
		t.Fatalf("len(Rulesets()) = %d, want 2", len(rulesets))
	}
	if rulesets[0].Name != "alpha" || rulesets[1].Name != "zeta" {
		t.Errorf("Rulesets() order = [%s %s], want [alpha zeta]", rulesets[0].Name, rulesets[1].Name)
	}
}

func TestRegistry_Replace_Validation(t *testing.T) {
	reg := NewRegistry(NewMemorySource(), nil)

	if err := reg.Replace([]*ast.Ruleset{nil}); err == nil {
		t.Error("Replace() accepted a nil ruleset")
	}

	if err := reg.Replace([]*ast.Ruleset{{Name: ""}}); err == nil {
		t.Error("Replace() accepted an unnamed ruleset")
	}

	var regErr *RegistryError
	err := reg.Replace([]*ast.Ruleset{nil})
	if !errors.As(err, &regErr) {
		t.Errorf("Replace() error type = %T, want *RegistryError", err)
	}
}

func TestRegistry_Replace_DuplicateNames(t *testing.T) {
	reg := NewRegistry(NewMemorySource(), nil)

	first := testRuleset("dup")
	second := testRuleset("dup")
	second.Version = "2.0"

	if err := reg.Replace([]*ast.Ruleset{first, second}); err != nil {
		t.Fatalf("Replace() failed: %v", err)
	}

	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
	rs, _ := reg.Ruleset("dup")
	if rs.Version != "2.0" {
		t.Errorf("kept Version = %q, want the later definition", rs.Version)
	}
}

func TestRegistry_VersionChangesOnReload(t *testing.T) {
	src := NewMemorySource(testRuleset("a"))
	reg := NewRegistry(src, nil)

	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	v1 := reg.Version()

	src.SetRulesets([]*ast.Ruleset{testRuleset("a"), testRuleset("b")})
	if err := reg.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() failed: %v", err)
	}

	if reg.Version() == v1 {
		t.Error("Version() unchanged after the held set changed")
	}
}

func TestRegistry_Reload_KeepsCurrentSetOnFailure(t *testing.T) {
	src := NewMemorySource(testRuleset("a"))
	reg := NewRegistry(src, nil)

	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	version := reg.Version()

	broken := NewRegistry(failingSource{}, nil)
	broken.mu.Lock()
	broken.rulesets = map[string]*ast.Ruleset{"a": testRuleset("a")}
	broken.version = version
	broken.mu.Unlock()

	if err := broken.Reload(context.Background()); err == nil {
		t.Fatal("Reload() succeeded with a failing source, want error")
	}

	if broken.Count() != 1 {
		t.Errorf("Count() = %d after failed reload, want 1", broken.Count())
	}
	if broken.Version() != version {
		t.Error("Version() changed after failed reload")
	}
}

func TestRegistry_WatchAndReload(t *testing.T) {
	src := NewMemorySource(testRuleset("a"))
	reg := NewRegistry(src, nil).WithDebounceInterval(10 * time.Millisecond)

	if err := reg.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- reg.WatchAndReload(ctx)
	}()

	// Give the watcher time to subscribe.
	time.Sleep(50 * time.Millisecond)

	src.SetRulesets([]*ast.Ruleset{testRuleset("a"), testRuleset("b")})

	deadline := time.Now().Add(2 * time.Second)
	for reg.Count() != 2 {
		if time.Now().After(deadline) {
			t.Fatal("registry not reloaded after source change")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("WatchAndReload() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WatchAndReload() did not return after cancel")
	}
}
