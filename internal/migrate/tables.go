package migrate

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"snowshift/internal/mapping"
)

// SchemaPlan is the table materialization batch for one target schema.
type SchemaPlan struct {
	Schema     string // target schema FQN
	Statements []Statement
	Targets    []string // fully qualified target tables, for existence checks
}

// PlanCreateTables builds one CTAS batch per mapping record. Names come
// straight from the mapping, fully qualified on both sides.
func PlanCreateTables(records []mapping.Record) []SchemaPlan {
	plans := make([]SchemaPlan, 0, len(records))
	for _, record := range records {
		plan := SchemaPlan{Schema: record.TargetSchema}
		for _, table := range record.Tables {
			plan.Targets = append(plan.Targets, table.TargetTable)
			plan.Statements = append(plan.Statements, Statement{
				Object: table.TargetTable,
				SQL: fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s AS SELECT * FROM %s",
					table.TargetTable, table.SourceTable),
			})
		}
		plans = append(plans, plan)
	}
	return plans
}

// ApplyCreateTables materializes every schema plan, schemaWorkers
// schemas at a time with tableWorkers tables in flight per schema.
// Sized so schemaWorkers * tableWorkers stays at or under the warehouse
// max concurrency.
func ApplyCreateTables(conn Conn, plans []SchemaPlan, schemaWorkers, tableWorkers int) *Summary {
	if schemaWorkers < 1 {
		schemaWorkers = 1
	}
	if tableWorkers < 1 {
		tableWorkers = 1
	}

	summary := &Summary{}
	jobs := make(chan SchemaPlan)

	var wg sync.WaitGroup
	for i := 0; i < schemaWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for plan := range jobs {
				summary.add(runSchemaPlan(conn, plan, tableWorkers))
			}
		}()
	}

	for _, plan := range plans {
		jobs <- plan
	}
	close(jobs)
	wg.Wait()

	return summary
}

func runSchemaPlan(conn Conn, plan SchemaPlan, tableWorkers int) Result {
	start := time.Now()

	if len(plan.Statements) == 0 {
		return Result{Object: plan.Schema, Status: StatusSkipped,
			Reason: "no tables in mapping", Duration: time.Since(start)}
	}

	database, schema, ok := splitSchemaFQN(plan.Schema)
	if !ok {
		return Result{Object: plan.Schema, Status: StatusFailed,
			Reason: "malformed schema name", Duration: time.Since(start)}
	}

	existing, err := conn.GetTables(database, schema)
	if err != nil {
		// SHOW TABLES fails when the schema is not there yet.
		if err := conn.Execute(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", plan.Schema)); err != nil {
			return Result{Object: plan.Schema, Status: StatusFailed,
				Reason: "schema creation failed", Err: err, Duration: time.Since(start)}
		}
		existing = nil
	}

	if allTablesExist(existing, plan.Targets) {
		return Result{Object: plan.Schema, Status: StatusSkipped,
			Reason: fmt.Sprintf("all %d tables already exist", len(plan.Targets)),
			Duration: time.Since(start)}
	}

	failures := runTableStatements(conn, plan.Statements, tableWorkers)
	if len(failures) > 0 {
		return Result{Object: plan.Schema, Status: StatusFailed,
			Reason: fmt.Sprintf("%d of %d tables failed", len(failures), len(plan.Statements)),
			Err:    failures[0], Duration: time.Since(start)}
	}

	return Result{Object: plan.Schema, Status: StatusDone, Duration: time.Since(start)}
}

// runTableStatements executes a CTAS batch tableWorkers at a time and
// collects the errors it hit. A failing table does not stop the rest.
func runTableStatements(conn Conn, statements []Statement, tableWorkers int) []error {
	jobs := make(chan Statement)
	errs := make(chan error, len(statements))

	var wg sync.WaitGroup
	for i := 0; i < tableWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for statement := range jobs {
				if err := conn.Execute(statement.SQL); err != nil {
					errs <- err
				}
			}
		}()
	}

	for _, statement := range statements {
		jobs <- statement
	}
	close(jobs)
	wg.Wait()
	close(errs)

	var failures []error
	for err := range errs {
		failures = append(failures, err)
	}
	return failures
}

func splitSchemaFQN(fqn string) (database, schema string, ok bool) {
	parts := strings.SplitN(fqn, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// allTablesExist compares bare table names from SHOW TABLES output
// against the mapped targets.
func allTablesExist(existing []string, targets []string) bool {
	if len(targets) == 0 {
		return false
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}
	for _, target := range targets {
		if !have[mapping.BaseName(target)] {
			return false
		}
	}
	return true
}
