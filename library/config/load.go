// Package config contains all the configuration used in the application.
package config

import (
	"path/filepath"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/distributed-ai/query-router/library/log"
)

// Default policy values used by LoadPolicy for absent settings.
// DefaultListen is also the --listen flag default in cmd/root.go.
const (
	DefaultListen               = "0.0.0.0:8313"
	DefaultMaxQueriesPerNode    = 5
	DefaultNodeTimeoutSeconds   = 300
	DefaultQueryTimeoutSeconds  = 180
	DefaultMaxResponsesPerQuery = 3
	DefaultMaxMemorySize        = 1000
	DefaultSweepIntervalSeconds = 30
	DefaultBatchCap             = 3
)

// LoadFromFile loads configuration from cfgPath, same shape as the CLI's
// --config flag, and records the containing directory for relative lookups.
func LoadFromFile(cfgPath string) {
	gconfig.S.Set("cfg_dir", filepath.Dir(cfgPath))
	if err := gconfig.S.LoadFromFile(cfgPath); err != nil {
		log.Logger.Panic("load configuration",
			zap.Error(err),
			zap.String("config", cfgPath))
	}

	log.Logger.Info("load configuration", zap.String("config", cfgPath))
}

// Policy is the set of tunables the router's coordinator is built from.
// It is read once at startup via LoadPolicy; the coordinator itself never
// reaches back into gconfig.
type Policy struct {
	MaxQueriesPerNode    int
	NodeTimeoutSeconds   int
	QueryTimeoutSeconds  int
	MaxResponsesPerQuery int
	MaxMemorySize        int
	SweepIntervalSeconds int
	BatchCap             int
}

// LoadPolicy reads router policy knobs from gconfig.S, falling back to the
// package defaults for anything absent.
func LoadPolicy() Policy {
	return Policy{
		MaxQueriesPerNode:    intOr("settings.router.max_queries_per_node", DefaultMaxQueriesPerNode),
		NodeTimeoutSeconds:   intOr("settings.router.node_timeout_seconds", DefaultNodeTimeoutSeconds),
		QueryTimeoutSeconds:  intOr("settings.router.query_timeout_seconds", DefaultQueryTimeoutSeconds),
		MaxResponsesPerQuery: intOr("settings.router.max_responses_per_query", DefaultMaxResponsesPerQuery),
		MaxMemorySize:        intOr("settings.router.max_memory_size", DefaultMaxMemorySize),
		SweepIntervalSeconds: intOr("settings.router.sweep_interval_seconds", DefaultSweepIntervalSeconds),
		BatchCap:             intOr("settings.router.batch_cap", DefaultBatchCap),
	}
}

func intOr(key string, def int) int {
	v := gconfig.S.Get(key)
	switch n := v.(type) {
	case nil:
		return def
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}
