package engine

import (
	"time"

	"golang.org/x/text/language"
)

// Config contains configuration for the evaluation engine.
type Config struct {
	// Collation selects the locale whose ordering the string comparator
	// uses. Default: language.Und (locale-independent collation).
	Collation language.Tag

	// Now supplies the clock for the withinLast operator. Tests inject a
	// fixed clock here. Default: time.Now.
	Now func() time.Time

	// Metrics receives evaluation observations. Optional; nil disables
	// instrumentation.
	Metrics MetricsSink
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Collation: language.Und,
		Now:       time.Now,
	}
}

// WithCollation sets the locale for string ordering comparisons.
func (c *Config) WithCollation(tag language.Tag) *Config {
	c.Collation = tag
	return c
}

// WithClock sets the clock used by the withinLast operator.
func (c *Config) WithClock(now func() time.Time) *Config {
	c.Now = now
	return c
}

// WithMetrics sets the metrics sink.
func (c *Config) WithMetrics(sink MetricsSink) *Config {
	c.Metrics = sink
	return c
}
