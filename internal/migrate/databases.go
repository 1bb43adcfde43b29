package migrate

import (
	"fmt"
	"sync"
	"time"

	"snowshift/internal/mapping"
)

// DatabasePlan is the setup battery for one target database.
type DatabasePlan struct {
	Database   string
	Statements []Statement
}

// CreateDatabasesOptions carry the session role, the roles the battery
// grants to, and target names to leave alone.
type CreateDatabasesOptions struct {
	Role         string
	AdminRole    string
	ReadonlyRole string
	Exclude      []string
}

// PlanCreateDatabases derives the distinct target databases from the
// mapping, first occurrence order, and builds one setup battery per
// database. Excluded names are returned separately for reporting.
func PlanCreateDatabases(records []mapping.Record, opts CreateDatabasesOptions) (plans []DatabasePlan, excluded []string) {
	skip := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		skip[name] = true
	}

	for _, database := range mapping.DistinctTargetDatabases(records) {
		if skip[database] {
			excluded = append(excluded, database)
			continue
		}
		plans = append(plans, DatabasePlan{
			Database:   database,
			Statements: databaseSetupStatements(database, opts),
		})
	}
	return plans, excluded
}

// databaseSetupStatements is the ownership and privilege battery every
// fresh target database gets: ownership and full privileges to the
// admin role, usage and select on current and future objects to the
// readonly role.
func databaseSetupStatements(database string, opts CreateDatabasesOptions) []Statement {
	lines := []string{
		fmt.Sprintf("USE ROLE %s", opts.Role),
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf("GRANT OWNERSHIP ON DATABASE %s TO ROLE %s", database, opts.AdminRole),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON DATABASE %s TO ROLE %s", database, opts.AdminRole),
		fmt.Sprintf("GRANT USAGE ON DATABASE %s TO ROLE %s", database, opts.ReadonlyRole),
		fmt.Sprintf("GRANT USAGE ON ALL SCHEMAS IN DATABASE %s TO ROLE %s", database, opts.ReadonlyRole),
		fmt.Sprintf("GRANT USAGE ON FUTURE SCHEMAS IN DATABASE %s TO ROLE %s", database, opts.ReadonlyRole),
		fmt.Sprintf("GRANT SELECT ON ALL TABLES IN DATABASE %s TO ROLE %s", database, opts.ReadonlyRole),
		fmt.Sprintf("GRANT SELECT ON FUTURE TABLES IN DATABASE %s TO ROLE %s", database, opts.ReadonlyRole),
	}

	statements := make([]Statement, 0, len(lines))
	for _, sql := range lines {
		statements = append(statements, Statement{Object: database, SQL: sql})
	}
	return statements
}

// ApplyCreateDatabases runs the database plans through a worker pool.
// Databases already present on the destination are skipped; a statement
// failure marks its database FAILED and the pool moves on.
func ApplyCreateDatabases(conn Conn, plans []DatabasePlan, workers int) *Summary {
	if workers < 1 {
		workers = 1
	}

	summary := &Summary{}
	jobs := make(chan DatabasePlan)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for plan := range jobs {
				summary.add(runDatabasePlan(conn, plan))
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

func runDatabasePlan(conn Conn, plan DatabasePlan) Result {
	start := time.Now()

	exists, err := conn.DatabaseExists(plan.Database)
	if err != nil {
		return Result{Object: plan.Database, Status: StatusFailed,
			Reason: "existence check failed", Err: err, Duration: time.Since(start)}
	}
	if exists {
		return Result{Object: plan.Database, Status: StatusSkipped,
			Reason: "already exists", Duration: time.Since(start)}
	}

	for _, statement := range plan.Statements {
		if err := conn.Execute(statement.SQL); err != nil {
			return Result{Object: plan.Database, Status: StatusFailed,
				Reason: "statement failed", Err: err, Duration: time.Since(start)}
		}
	}

	return Result{Object: plan.Database, Status: StatusDone, Duration: time.Since(start)}
}
