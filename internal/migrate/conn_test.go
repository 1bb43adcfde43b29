package migrate

import (
	"sync"

	"snowshift/internal/snowflake"
)

// fakeConn records every executed statement and serves canned metadata,
// keyed the way the service queries it.
type fakeConn struct {
	mu sync.Mutex

	databases []snowflake.Database
	schemas   map[string][]string // database -> schemas
	tables    map[string][]string // database.schema -> tables
	exists    map[string]bool     // DatabaseExists answers

	databasesErr error
	schemasErr   map[string]error // database -> error
	tablesErr    map[string]error // database.schema -> error
	existsErr    map[string]error
	execErr      map[string]error // exact SQL -> error

	executed []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		schemas:    make(map[string][]string),
		tables:     make(map[string][]string),
		exists:     make(map[string]bool),
		schemasErr: make(map[string]error),
		tablesErr:  make(map[string]error),
		existsErr:  make(map[string]error),
		execErr:    make(map[string]error),
	}
}

func (f *fakeConn) Execute(statement string) error {
	f.mu.Lock()
	f.executed = append(f.executed, statement)
	f.mu.Unlock()
	return f.execErr[statement]
}

func (f *fakeConn) GetDatabases() ([]snowflake.Database, error) {
	return f.databases, f.databasesErr
}

func (f *fakeConn) GetSchemas(database string) ([]string, error) {
	if err := f.schemasErr[database]; err != nil {
		return nil, err
	}
	return f.schemas[database], nil
}

func (f *fakeConn) GetTables(database, schema string) ([]string, error) {
	key := database + "." + schema
	if err := f.tablesErr[key]; err != nil {
		return nil, err
	}
	return f.tables[key], nil
}

func (f *fakeConn) DatabaseExists(name string) (bool, error) {
	if err := f.existsErr[name]; err != nil {
		return false, err
	}
	return f.exists[name], nil
}

// executedSQL returns a copy of the recorded statements.
func (f *fakeConn) executedSQL() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.executed))
	copy(out, f.executed)
	return out
}
