// Package engine is the facade wiring the §2 pipeline together: a caller
// hands Execute an already-built operator graph (the plan -> operator
// graph "build" step is driven by an external planner per spec §1) plus a
// bound transaction, and Execute drives it to completion through the
// scheduler and write pipeline, streaming rows to the caller's channel.
package engine

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kvsql/engine/scheduler"
)

// CommitResponse selects the commit_response config option (§6): how far
// a write must be durable/visible before Execute's caller is told the
// commit returned.
type CommitResponse int

const (
	CommitAccepted CommitResponse = iota
	CommitAvailable
	CommitStored
	CommitPropagated
)

func (c CommitResponse) String() string {
	switch c {
	case CommitAccepted:
		return "ACCEPTED"
	case CommitAvailable:
		return "AVAILABLE"
	case CommitStored:
		return "STORED"
	case CommitPropagated:
		return "PROPAGATED"
	default:
		return "UNKNOWN"
	}
}

// Config carries every §6 option that affects core semantics. Options
// that only matter to a surrounding RPC/service layer (not modeled here,
// per §1 non-goals) are intentionally absent.
type Config struct {
	ThreadPoolSize        int           `yaml:"thread_pool_size"`
	DefaultPartitions     int           `yaml:"default_partitions"`
	StealingEnabled       bool          `yaml:"stealing_enabled"`
	EnableHybridScheduler bool          `yaml:"enable_hybrid_scheduler"`
	LightweightJobLevel   int           `yaml:"lightweight_job_level"`
	ScanBlockSize         int           `yaml:"scan_block_size"`
	ScanYieldInterval     int           `yaml:"scan_yield_interval"`
	ScanDefaultParallel   int           `yaml:"scan_default_parallel"`
	MaxResultSetWriters   int           `yaml:"max_result_set_writers"`
	CommitResponse        CommitResponse `yaml:"-"`
	LowercaseRegularIdentifiers bool    `yaml:"lowercase_regular_identifiers"`
	EnableIndexJoin       bool          `yaml:"enable_index_join"`
	EnableJoinScan        bool          `yaml:"enable_join_scan"`
	ZoneOffsetMinutes     int32         `yaml:"zone_offset_minutes"`
	TryInsertOnUpsertingSecondary bool  `yaml:"try_insert_on_upserting_secondary"`

	// CommitTimeout bounds how long CommitWithRetry keeps retrying a short
	// transaction's serialization failures before giving up (§5's commit
	// timeout, reported as an error without blocking other tasks).
	CommitTimeout time.Duration `yaml:"-"`
}

// DefaultConfig returns the engine's unconfigured defaults: a stealing
// pool sized per §4.3.5, hybrid scheduling with a small lightweight
// threshold, and STORED commit visibility.
func DefaultConfig() Config {
	return Config{
		ThreadPoolSize:              scheduler.DefaultPoolSize(),
		DefaultPartitions:           1,
		StealingEnabled:             true,
		EnableHybridScheduler:       true,
		LightweightJobLevel:         8,
		ScanBlockSize:               1024,
		ScanYieldInterval:           1024,
		ScanDefaultParallel:         1,
		MaxResultSetWriters:         16,
		CommitResponse:              CommitStored,
		LowercaseRegularIdentifiers: true,
		EnableIndexJoin:             true,
		EnableJoinScan:              true,
		ZoneOffsetMinutes:           0,
		TryInsertOnUpsertingSecondary: true,
		CommitTimeout:               30 * time.Second,
	}
}

// LoadConfigYAML reads a YAML document over DefaultConfig, for the
// embedder convenience described in §B of SPEC_FULL.md (not on the hot
// path: the core never loads its own config from a file).
func LoadConfigYAML(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, err
	}
	cfg.clamp()
	return cfg, nil
}

func (c *Config) clamp() {
	if c.MaxResultSetWriters < 1 {
		c.MaxResultSetWriters = 1
	}
	if c.MaxResultSetWriters > 256 {
		c.MaxResultSetWriters = 256
	}
	if c.ThreadPoolSize <= 0 {
		c.ThreadPoolSize = scheduler.DefaultPoolSize()
	}
}
