package tasks

import "time"

// Config holds configuration for the task queue. Zero fields take the
// values from DefaultConfig.
type Config struct {
	// Workers is the number of concurrent task workers.
	Workers int

	// ReleaseAfter hands a claimed task to another worker when it has not
	// finished in time.
	ReleaseAfter time.Duration

	// CleanupInterval is how often backlite purges finished tasks.
	CleanupInterval time.Duration
}

// DefaultConfig suits a single small instance: audit cleanup is the only
// recurring job.
func DefaultConfig() Config {
	return Config{
		Workers:         1,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.ReleaseAfter <= 0 {
		c.ReleaseAfter = d.ReleaseAfter
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	return c
}
