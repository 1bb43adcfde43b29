package migrate

import (
	"fmt"
	"strings"

	"snowshift/internal/mapping"
	"snowshift/pkg/errors"
)

// MergeOptions control which source databases fold into the merged
// database.
type MergeOptions struct {
	MergedDatabase string
	Exclude        []string
}

// MergePlan is the ordered statement list for one merge run plus the
// classification of every database the source account showed.
type MergePlan struct {
	MergedDatabase string
	Statements     []Statement
	Databases      []string // databases that will be merged
	Imported       []string // marketplace mounts, never merged
	Excluded       []string // skipped on request
}

// PlanMerge enumerates the source account and builds the full statement
// list: the merged database first, then one zero-copy clone per schema.
// Any database or schema name containing the delimiter aborts planning
// so nothing runs against a layout that cannot be unpacked later.
func PlanMerge(conn Conn, opts MergeOptions) (*MergePlan, error) {
	if opts.MergedDatabase == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "merged database name is required")
	}

	databases, err := conn.GetDatabases()
	if err != nil {
		return nil, err
	}

	exclude := make(map[string]bool, len(opts.Exclude))
	for _, name := range opts.Exclude {
		exclude[name] = true
	}

	plan := &MergePlan{MergedDatabase: opts.MergedDatabase}
	plan.Statements = append(plan.Statements, Statement{
		Object: opts.MergedDatabase,
		SQL:    fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", opts.MergedDatabase),
	})

	for _, database := range databases {
		switch {
		case database.Name == "SNOWFLAKE" || database.Name == opts.MergedDatabase:
			continue
		case exclude[database.Name]:
			plan.Excluded = append(plan.Excluded, database.Name)
			continue
		case database.Imported():
			plan.Imported = append(plan.Imported, database.Name)
			continue
		}

		if strings.Contains(database.Name, mapping.Delimiter) {
			return nil, delimiterError("database", database.Name)
		}

		schemas, err := conn.GetSchemas(database.Name)
		if err != nil {
			return nil, err
		}

		for _, schema := range schemas {
			if schema == "INFORMATION_SCHEMA" {
				continue
			}
			if strings.Contains(schema, mapping.Delimiter) {
				return nil, delimiterError("schema", fmt.Sprintf("%s.%s", database.Name, schema))
			}

			plan.Statements = append(plan.Statements, Statement{
				Object: fmt.Sprintf("%s.%s", database.Name, schema),
				SQL: fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s.%s CLONE %s.%s",
					opts.MergedDatabase, mapping.MergedSchemaName(database.Name, schema),
					database.Name, schema),
			})
		}

		plan.Databases = append(plan.Databases, database.Name)
	}

	return plan, nil
}

func delimiterError(kind, name string) *errors.AppError {
	return errors.New(errors.ErrCodeReservedDelimiter,
		fmt.Sprintf("%s name %q contains the delimiter %q and cannot be unpacked later",
			kind, name, mapping.Delimiter)).
		WithSuggestions(fmt.Sprintf("Rename the %s or skip its database with --exclude", kind))
}
