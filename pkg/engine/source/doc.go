// Package source provides ruleset sources and the registry that serves
// loaded rulesets to evaluators.
//
// A source is responsible for loading and watching rulesets. This package
// provides file-based and in-memory implementations plus a Registry that
// holds the loaded set and swaps it atomically on reload.
//
// # File Source
//
// The file source loads rulesets from YAML or JSON files on disk, either
// a single file or a whole directory:
//
//	src := source.NewFileSource("rules/", logger)
//	rulesets, err := src.Load(ctx)
//
// Files that fail to parse or validate are skipped with a warning when
// loading a directory, so one bad file cannot take down the rest.
//
// # Registry
//
// The registry pairs a source with thread-safe storage:
//
//	reg := source.NewRegistry(src, logger)
//	if err := reg.Load(ctx); err != nil {
//	    return err
//	}
//	rs, ok := reg.Ruleset("loan-eligibility")
//
// # Hot-Reload
//
// WatchAndReload blocks, watching the source and reloading after each
// debounced burst of changes. A reload that fails keeps the current set:
//
//	go func() {
//	    if err := reg.WatchAndReload(ctx); err != nil {
//	        log.Error("watch failed", "error", err)
//	    }
//	}()
//
// # In-Memory Source
//
// The in-memory source is useful for testing and for rulesets built in
// code. SetRulesets notifies watchers, so registry reload paths can be
// exercised without a file system:
//
//	src := source.NewMemorySource(rulesets...)
//	src.SetRulesets(next)
package source
