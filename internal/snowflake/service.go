package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"snowshift/pkg/errors"

	_ "github.com/snowflakedb/gosnowflake"
)

// Service provides Snowflake database operations
type Service struct {
	db             *sql.DB
	config         Config
	connected      bool
	errorHandler   *errors.ErrorHandler
	circuitBreaker *errors.CircuitBreaker
}

// Config holds Snowflake connection configuration
type Config struct {
	Account   string
	Username  string
	Password  string
	Warehouse string
	Role      string
	Timeout   time.Duration
}

// Database is one row of SHOW TERSE DATABASES output.
type Database struct {
	Name string
	Kind string
}

// KindImported marks databases mounted from a share or the marketplace.
// They cannot be cloned and are skipped by the merge.
const KindImported = "IMPORTED DATABASE"

// Imported reports whether the database is a share or marketplace mount.
func (d Database) Imported() bool {
	return d.Kind == KindImported
}

// NewService creates a new Snowflake service
func NewService(config Config) *Service {
	return &Service{
		config:         config,
		errorHandler:   errors.GetGlobalErrorHandler(),
		circuitBreaker: errors.NewCircuitBreaker("snowflake", 5, 30*time.Second),
	}
}

// Connect establishes a connection to Snowflake
func (s *Service) Connect() error {
	if s.connected {
		return nil
	}

	if err := ValidateConfig(s.config); err != nil {
		return err
	}

	// Use circuit breaker for connection attempts
	return s.circuitBreaker.Execute(context.Background(), func() error {
		return errors.RetryWithBackoff(context.Background(), func(ctx context.Context) error {
			dsn := fmt.Sprintf("%s:%s@%s?warehouse=%s&role=%s",
				s.config.Username,
				s.config.Password,
				s.config.Account,
				s.config.Warehouse,
				s.config.Role,
			)

			db, err := sql.Open("snowflake", dsn)
			if err != nil {
				return errors.ConnectionError("Failed to open Snowflake connection", err).
					WithContext("account", s.config.Account).
					WithContext("warehouse", s.config.Warehouse)
			}

			// Administrative statements are cheap; a small pool is enough for
			// the worker commands.
			db.SetMaxOpenConns(10)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(10 * time.Minute)

			connCtx, cancel := s.getContext()
			defer cancel()

			if err := db.PingContext(connCtx); err != nil {
				db.Close()

				if strings.Contains(err.Error(), "authentication") {
					return errors.New(errors.ErrCodeAuthenticationFailed, "Authentication failed").
						WithContext("user", s.config.Username).
						WithSuggestions(
							"Verify your username and password",
							"Check if your account is locked",
							"Run 'snowshift auth set' to store fresh credentials",
						)
				}

				return errors.ConnectionError("Failed to connect to Snowflake", err).
					WithContext("account", s.config.Account).
					AsRecoverable()
			}

			s.db = db
			s.connected = true
			return nil
		})
	})
}

// Close closes the database connection
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}

	s.connected = false
	return nil
}

// Execute runs a single SQL statement.
func (s *Service) Execute(statement string) error {
	if !s.connected {
		return errors.New(errors.ErrCodeConnectionFailed, "Not connected to database").
			WithSuggestions("Call Connect() before executing SQL")
	}

	ctx, cancel := s.getContext()
	defer cancel()

	if _, err := s.db.ExecContext(ctx, statement); err != nil {
		sqlErr := errors.SQLError("Failed to execute statement", statement, err)

		errStr := err.Error()
		if strings.Contains(errStr, "does not exist") || strings.Contains(errStr, "not found") {
			sqlErr.Code = errors.ErrCodeSQLObjectNotFound
			sqlErr.WithSuggestions(
				"Verify the object exists on this account",
				"Check for typos in object names",
				"Ensure the role has access to the object",
			)
		}

		s.errorHandler.Handle(sqlErr)
		return sqlErr
	}

	return nil
}

// ExecuteQuery executes a query and returns results
func (s *Service) ExecuteQuery(query string) (*sql.Rows, error) {
	if !s.connected {
		return nil, fmt.Errorf("not connected to database")
	}

	ctx, cancel := s.getContext()
	defer cancel()

	return s.db.QueryContext(ctx, query)
}

// UseRole switches the session to the given role.
func (s *Service) UseRole(role string) error {
	return s.Execute(fmt.Sprintf("USE ROLE %s", role))
}

// GetDatabases lists every database visible to the session, with its kind so
// callers can tell apart standard databases from share mounts.
func (s *Service) GetDatabases() ([]Database, error) {
	if !s.connected {
		return nil, fmt.Errorf("not connected to database")
	}

	rows, err := s.ExecuteQuery("SHOW TERSE DATABASES")
	if err != nil {
		return nil, fmt.Errorf("failed to get databases: %w", err)
	}
	defer rows.Close()

	var databases []Database
	for rows.Next() {
		values, err := scanRow(rows)
		if err != nil {
			return nil, err
		}

		// SHOW TERSE DATABASES: name is the second column, kind the third.
		db := Database{}
		if len(values) > 1 {
			db.Name, _ = values[1].(string)
		}
		if len(values) > 2 {
			db.Kind, _ = values[2].(string)
		}
		if db.Name != "" {
			databases = append(databases, db)
		}
	}

	return databases, rows.Err()
}

// GetSchemas lists the schemas of a database.
func (s *Service) GetSchemas(database string) ([]string, error) {
	if !s.connected {
		return nil, fmt.Errorf("not connected to database")
	}

	rows, err := s.ExecuteQuery(fmt.Sprintf("SHOW SCHEMAS IN DATABASE %s", database))
	if err != nil {
		return nil, fmt.Errorf("failed to get schemas for %s: %w", database, err)
	}
	defer rows.Close()

	return scanNameColumn(rows)
}

// GetTables lists the tables of a schema.
func (s *Service) GetTables(database, schema string) ([]string, error) {
	if !s.connected {
		return nil, fmt.Errorf("not connected to database")
	}

	rows, err := s.ExecuteQuery(fmt.Sprintf("SHOW TABLES IN SCHEMA %s.%s", database, schema))
	if err != nil {
		return nil, fmt.Errorf("failed to get tables for %s.%s: %w", database, schema, err)
	}
	defer rows.Close()

	return scanNameColumn(rows)
}

// DatabaseExists reports whether a database with this exact name exists.
func (s *Service) DatabaseExists(name string) (bool, error) {
	if !s.connected {
		return false, fmt.Errorf("not connected to database")
	}

	rows, err := s.ExecuteQuery(fmt.Sprintf("SHOW DATABASES LIKE '%s'", name))
	if err != nil {
		return false, fmt.Errorf("failed to check database %s: %w", name, err)
	}
	defer rows.Close()

	exists := rows.Next()
	return exists, rows.Err()
}

// TestConnection tests the database connection
func (s *Service) TestConnection() error {
	if !s.connected {
		if err := s.Connect(); err != nil {
			return err
		}
	}

	ctx, cancel := s.getContext()
	defer cancel()

	return s.db.PingContext(ctx)
}

// Helper methods

func (s *Service) getContext() (context.Context, context.CancelFunc) {
	timeout := s.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

// scanRow scans a row of unknown width into a value slice. SHOW commands
// return driver-defined columns; callers pick fields by position.
func scanRow(rows *sql.Rows) ([]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(cols))
	valuePtrs := make([]interface{}, len(cols))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := rows.Scan(valuePtrs...); err != nil {
		return nil, err
	}

	return values, nil
}

// scanNameColumn collects the name column (second position) of SHOW output.
func scanNameColumn(rows *sql.Rows) ([]string, error) {
	var names []string
	for rows.Next() {
		values, err := scanRow(rows)
		if err != nil {
			return nil, err
		}

		if len(values) > 1 {
			if name, ok := values[1].(string); ok {
				names = append(names, name)
			}
		}
	}

	return names, rows.Err()
}

// ValidateConfig validates the Snowflake configuration
func ValidateConfig(config Config) error {
	if config.Account == "" {
		return fmt.Errorf("account is required")
	}
	if config.Username == "" {
		return fmt.Errorf("username is required")
	}
	if config.Password == "" {
		return fmt.Errorf("password is required")
	}
	if config.Warehouse == "" {
		return fmt.Errorf("warehouse is required")
	}
	if config.Role == "" {
		return fmt.Errorf("role is required")
	}
	return nil
}
