package service

import "time"

// Config defines where the catalog's durable state lives.
type Config struct {
	// SignatureFile seeds the catalog when no snapshot exists.
	SignatureFile string
	SnapshotDir   string
	// SnapshotInterval is used by StartSnapshotJob; zero disables it.
	SnapshotInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.SnapshotDir == "" {
		c.SnapshotDir = "./data/snapshots"
	}
	return c
}
