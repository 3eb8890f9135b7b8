// planshell is a small demo CLI: it builds an in-memory catalog and
// statistics snapshot, plans one hard-coded equality query against it
// under a chosen config preset, and prints the winning plan and its
// cost breakdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mantisdb/planner/analysis"
	"github.com/mantisdb/planner/config"
	"github.com/mantisdb/planner/diagnostic"
	"github.com/mantisdb/planner/index"
	"github.com/mantisdb/planner/planlog"
	"github.com/mantisdb/planner/planner"
	"github.com/mantisdb/planner/predicate"
	"github.com/mantisdb/planner/stats"
)

func main() {
	var (
		preset     = flag.String("preset", "default", "config preset: minimal|conservative|default|aggressive")
		field      = flag.String("field", "email", "field to query by equality")
		value      = flag.String("value", "a@example.com", "value to compare against")
		recordType = flag.String("type", "user", "record type being queried")
	)
	flag.Parse()

	cfg, err := presetByName(*preset)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	catalog := index.NewStaticCatalog()
	catalog.Add(index.Descriptor{
		Name:       "by_" + *field,
		RecordType: *recordType,
		KeyFields:  []string{*field},
		Kind:       index.BTree,
	})

	snapshot := stats.NewSnapshot()
	snapshot.Types[*recordType] = stats.TypeStats{
		RecordType: *recordType,
		RowCount:   100000,
		Fields:     map[string]stats.FieldStats{},
	}

	pl := planner.New(catalog, cfg)
	logger, err := planlog.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	pl.Logger = logger
	defer pl.Logger.Sync()

	q := analysis.Query{
		RecordType: *recordType,
		Predicates: []*predicate.Predicate{predicate.Cmp(*field, predicate.OpEquals, *value)},
	}

	chosen, err := pl.Plan(context.Background(), q, snapshot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "planning failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("plan:")
	fmt.Println(diagnostic.Explain(chosen))
	fmt.Println("cost:")
	fmt.Println(diagnostic.Breakdown(chosen, pl.Weights).String())
}

func presetByName(name string) (config.Config, error) {
	switch name {
	case "minimal":
		return config.Minimal(), nil
	case "conservative":
		return config.Conservative(), nil
	case "default":
		return config.Default(), nil
	case "aggressive":
		return config.Aggressive(), nil
	default:
		return config.Config{}, fmt.Errorf("unknown preset %q", name)
	}
}
