package migrate

import (
	"sync"
	"time"

	"snowshift/internal/snowflake"
)

// Conn is the slice of the Snowflake service the migration operations
// use. *snowflake.Service satisfies it; tests substitute a recorder.
type Conn interface {
	Execute(statement string) error
	GetDatabases() ([]snowflake.Database, error)
	GetSchemas(database string) ([]string, error)
	GetTables(database, schema string) ([]string, error)
	DatabaseExists(name string) (bool, error)
}

// Statement is one SQL command of a plan together with the object it
// acts on. The SQL a dry run prints is exactly the SQL a real run
// executes.
type Statement struct {
	Object string
	SQL    string
}

// Status classifies the outcome of one unit of work.
type Status string

const (
	StatusDone    Status = "DONE"
	StatusSkipped Status = "SKIPPED"
	StatusFailed  Status = "FAILED"
)

// Result reports the outcome of one unit of work, a statement for the
// sequential operations or a whole database/schema for the pooled ones.
type Result struct {
	Object   string
	Status   Status
	Reason   string
	Err      error
	Duration time.Duration
}

// Summary aggregates results across a run.
type Summary struct {
	mu      sync.Mutex
	Results []Result
}

func (s *Summary) add(result Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Results = append(s.Results, result)
}

// Count returns how many results carry the given status.
func (s *Summary) Count(status Status) int {
	count := 0
	for _, result := range s.Results {
		if result.Status == status {
			count++
		}
	}
	return count
}

// Failed reports whether any unit of work failed.
func (s *Summary) Failed() bool {
	return s.Count(StatusFailed) > 0
}

// Apply executes statements in order, one result per statement. A
// failure is recorded and execution continues with the next statement.
func Apply(conn Conn, statements []Statement) *Summary {
	summary := &Summary{}
	for _, statement := range statements {
		start := time.Now()
		if err := conn.Execute(statement.SQL); err != nil {
			summary.add(Result{
				Object:   statement.Object,
				Status:   StatusFailed,
				Reason:   "statement failed",
				Err:      err,
				Duration: time.Since(start),
			})
			continue
		}
		summary.add(Result{
			Object:   statement.Object,
			Status:   StatusDone,
			Duration: time.Since(start),
		})
	}
	return summary
}
