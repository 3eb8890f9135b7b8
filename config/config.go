// Package config holds the planner's tunable budgets and feature flags,
// loadable from YAML the way the teacher's top-level config package
// loads server/database settings (config/config.go).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every budget and feature flag the planner consults while
// enumerating, costing, rewriting, and selecting a plan (spec.md §5, §7).
type Config struct {
	// ComplexityThreshold bounds PlanComplexity before selection refuses a
	// plan outright (spec.md §7, planerr.PlanComplexityExceeded).
	ComplexityThreshold float64 `yaml:"complexity_threshold"`

	// MaxPlanEnumerations bounds how many candidate plans the enumerator
	// may produce for one query (spec.md §5 resource invariants).
	MaxPlanEnumerations int `yaml:"max_plan_enumerations"`

	// MaxRuleApplications bounds total rewrite-rule firings across one
	// planning pass.
	MaxRuleApplications int `yaml:"max_rule_applications"`

	// TimeoutSeconds bounds the wall-clock budget for one planning call;
	// 0 disables the timeout.
	TimeoutSeconds float64 `yaml:"timeout_seconds"`

	EnableCostBasedOptimization  bool `yaml:"enable_cost_based_optimization"`
	EnableIndexIntersection      bool `yaml:"enable_index_intersection"`
	EnableIndexUnion             bool `yaml:"enable_index_union"`
	EnableInPredicateOptimization bool `yaml:"enable_in_predicate_optimization"`

	// InUnionThreshold is the maximum IN-list size the enumerator will
	// expand into an index union before falling back to an index-nested
	// loop or residual filter (spec.md §4.5 step 3).
	InUnionThreshold int `yaml:"in_union_threshold"`
	// InJoinThreshold is the maximum IN-list size eligible for an
	// index-nested-loop ("in-join") candidate.
	InJoinThreshold int `yaml:"in_join_threshold"`
}

// Minimal turns off cost-based selection, index intersection, index union
// and IN-list optimization — useful for isolating planner bugs from
// cost-model effects. Single-index scan and seek candidates are still
// enumerated; with cost-based selection off the first candidate, the
// table scan, is kept.
func Minimal() Config {
	return Config{
		ComplexityThreshold:           50,
		MaxPlanEnumerations:           10,
		MaxRuleApplications:           5,
		TimeoutSeconds:                1,
		EnableCostBasedOptimization:   false,
		EnableIndexIntersection:       false,
		EnableIndexUnion:              false,
		EnableInPredicateOptimization: false,
		InUnionThreshold:              0,
		InJoinThreshold:               0,
	}
}

// Conservative enables single-index access paths and rewrites but keeps
// IN-list fan-out and intersection off.
func Conservative() Config {
	return Config{
		ComplexityThreshold:           200,
		MaxPlanEnumerations:           200,
		MaxRuleApplications:           50,
		TimeoutSeconds:                2,
		EnableCostBasedOptimization:   true,
		EnableIndexIntersection:       false,
		EnableIndexUnion:              false,
		EnableInPredicateOptimization: true,
		InUnionThreshold:              8,
		InJoinThreshold:               32,
	}
}

// Default is the recommended configuration for general workloads.
func Default() Config {
	return Config{
		ComplexityThreshold:           1000,
		MaxPlanEnumerations:           2000,
		MaxRuleApplications:           200,
		TimeoutSeconds:                5,
		EnableCostBasedOptimization:   true,
		EnableIndexIntersection:       true,
		EnableIndexUnion:              true,
		EnableInPredicateOptimization: true,
		InUnionThreshold:              64,
		InJoinThreshold:               256,
	}
}

// Aggressive widens every budget for workloads that can tolerate more
// planning time in exchange for better plans.
func Aggressive() Config {
	return Config{
		ComplexityThreshold:           10000,
		MaxPlanEnumerations:           20000,
		MaxRuleApplications:           2000,
		TimeoutSeconds:                30,
		EnableCostBasedOptimization:   true,
		EnableIndexIntersection:       true,
		EnableIndexUnion:              true,
		EnableInPredicateOptimization: true,
		InUnionThreshold:              512,
		InJoinThreshold:               4096,
	}
}

// Load reads a YAML configuration file, starting from Default and
// overriding only the fields present in the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations that would make planning meaningless
// (zero or negative budgets).
func (c Config) Validate() error {
	if c.MaxPlanEnumerations <= 0 {
		return fmt.Errorf("config: max_plan_enumerations must be positive, got %d", c.MaxPlanEnumerations)
	}
	if c.MaxRuleApplications <= 0 {
		return fmt.Errorf("config: max_rule_applications must be positive, got %d", c.MaxRuleApplications)
	}
	if c.ComplexityThreshold <= 0 {
		return fmt.Errorf("config: complexity_threshold must be positive, got %v", c.ComplexityThreshold)
	}
	return nil
}
