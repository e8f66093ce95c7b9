package metrics

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema/node_metrics.schema.json
var nodeMetricsSchemaJSON string

const nodeMetricsSchemaURL = "node_metrics.schema.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func metricsSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(nodeMetricsSchemaURL, strings.NewReader(nodeMetricsSchemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add metrics schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = compiler.Compile(nodeMetricsSchemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile metrics schema: %w", schemaErr)
		}
	})
	return compiledSchema, schemaErr
}

// ValidateSnapshot checks exported metrics JSON against the node metrics
// schema.
func ValidateSnapshot(raw []byte) error {
	schema, err := metricsSchema()
	if err != nil {
		return err
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("decode metrics snapshot: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("metrics snapshot does not match schema: %w", err)
	}
	return nil
}

// ExportJSON marshals the current snapshot and validates it before returning.
func (c *Collector) ExportJSON() ([]byte, error) {
	raw, err := json.Marshal(c.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("marshal metrics snapshot: %w", err)
	}
	if err := ValidateSnapshot(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Invariants reports violations of the counter invariants in a snapshot.
// An empty result means the snapshot is internally consistent.
func (s SerializedMetrics) Invariants() []string {
	var problems []string
	for node, m := range s {
		if m.TotalExecutions != m.SuccessCount+m.FailureCount {
			problems = append(problems, fmt.Sprintf("%s: total_executions %d != success %d + failure %d",
				node, m.TotalExecutions, m.SuccessCount, m.FailureCount))
		}
		if tallies := m.TimeoutErrors + m.ValidationErrors + m.NetworkErrors + m.OtherErrors; tallies != m.FailureCount {
			problems = append(problems, fmt.Sprintf("%s: error tallies %d != failure_count %d",
				node, tallies, m.FailureCount))
		}
		if (m.P50 == nil) != (m.P99 == nil) || (m.P90 == nil) != (m.P99 == nil) {
			problems = append(problems, fmt.Sprintf("%s: percentiles partially populated", node))
		}
	}
	return problems
}
