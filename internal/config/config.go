// Package config holds engine configuration and the on-disk layout.
package config

import (
	"path/filepath"
	"time"
)

type Config struct {
	DataDir string
	Debug   bool

	Sequence SequenceConfig
	Stats    StatsConfig
	Workers  WorkerConfig
	HTTP     HTTPConfig
}

type SequenceConfig struct {
	FlushAfter int // cache hits before an asynchronous flush is scheduled
}

type StatsConfig struct {
	MaxWorkers int // bound on the stats refresh fan-out pool
}

type WorkerConfig struct {
	MaxBackground  int           // bound on the shared background pool
	ReleaseTimeout time.Duration // drain budget at shutdown
}

type HTTPConfig struct {
	Addr string
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Sequence: SequenceConfig{
			FlushAfter: 10,
		},
		Stats: StatsConfig{
			MaxWorkers: 4,
		},
		Workers: WorkerConfig{
			MaxBackground:  4,
			ReleaseTimeout: 5 * time.Second,
		},
		HTTP: HTTPConfig{
			Addr: ":5433",
		},
	}
}

// Data directory layout: cluster-wide documents under global/, one statistics
// document per table under mpg_stat/, and one line-delimited JSON file per
// table under json_db/.

func (c *Config) GlobalDir() string { return filepath.Join(c.DataDir, "global") }

func (c *Config) CatalogPath() string { return filepath.Join(c.GlobalDir(), "mpg_tables.json") }

func (c *Config) SequencesPath() string { return filepath.Join(c.GlobalDir(), "mpg_sequences.json") }

func (c *Config) StatsDir() string { return filepath.Join(c.DataDir, "mpg_stat") }

func (c *Config) TableStatsPath(table string) string {
	return filepath.Join(c.StatsDir(), table+".json")
}

func (c *Config) TableDir() string { return filepath.Join(c.DataDir, "json_db") }

func (c *Config) TablePath(table string) string {
	return filepath.Join(c.TableDir(), table+".jsonl")
}
