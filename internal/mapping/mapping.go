package mapping

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"snowshift/internal/common"
	"snowshift/pkg/errors"
)

// Delimiter separates the original database name from the schema name
// inside merged schema identifiers, e.g. SALES__PUBLIC. Database and
// schema names containing it cannot be merged unambiguously.
const Delimiter = "__"

// Schemas holding thousands of tables produce very long mapping lines.
const maxLineBytes = 4 * 1024 * 1024

// Table pairs a fully qualified source table with its fully qualified
// destination.
type Table struct {
	SourceTable string `json:"source_table"`
	TargetTable string `json:"target_table"`
}

// Record describes how one schema of the merged database unpacks on the
// destination account. TargetSchema is fully qualified as
// "DATABASE.SCHEMA"; table names are fully qualified on both sides.
type Record struct {
	SourceDatabase     string  `json:"source_database"`
	SourceSchema       string  `json:"source_schema"`
	TargetDatabaseName string  `json:"target_database_name"`
	TargetSchema       string  `json:"target_schema"`
	Tables             []Table `json:"tables"`
}

// MergedSchemaName builds the schema name a database/schema pair takes
// inside the merged database.
func MergedSchemaName(database, schema string) string {
	return database + Delimiter + schema
}

// SplitMergedSchema splits a merged schema name back into database and
// schema. ok is false when the name does not contain the delimiter
// exactly once, which covers the merged database's own PUBLIC and
// INFORMATION_SCHEMA.
func SplitMergedSchema(name string) (database, schema string, ok bool) {
	parts := strings.Split(name, Delimiter)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// BaseName returns the last dot-separated component of a fully
// qualified object name.
func BaseName(fqn string) string {
	if i := strings.LastIndex(fqn, "."); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}

// Write writes records to path as JSON Lines, one record per line, in
// the order given.
func Write(path string, records []Record) error {
	cleanPath, err := common.CleanPath(path)
	if err != nil {
		return errors.MappingError("invalid mapping path", path, err)
	}

	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, common.DirPermissionNormal); err != nil {
			return errors.Wrap(err, errors.ErrCodeFileOperation, "failed to create mapping directory")
		}
	}

	file, err := os.OpenFile(cleanPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, common.FilePermissionNormal) // #nosec G304 - path is validated
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeFileOperation, "failed to create mapping file")
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for i, record := range records {
		if err := encoder.Encode(record); err != nil {
			return errors.MappingError(fmt.Sprintf("failed to encode record %d", i+1), cleanPath, err)
		}
	}

	return nil
}

// Read loads a mapping file produced by Write. Blank lines are ignored;
// malformed lines are reported with their line number.
func Read(path string) ([]Record, error) {
	cleanPath, err := common.CleanPath(path)
	if err != nil {
		return nil, errors.MappingError("invalid mapping path", path, err)
	}

	file, err := os.Open(cleanPath) // #nosec G304 - path is validated
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeMappingNotFound,
				fmt.Sprintf("mapping file not found: %s", path)).
				WithContext("path", path).
				WithSuggestions("Run 'snowshift map' to generate the mapping")
		}
		return nil, errors.Wrap(err, errors.ErrCodeFileOperation, "failed to open mapping file")
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var record Record
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, errors.MappingError(fmt.Sprintf("malformed record on line %d", line), cleanPath, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeFileOperation, "failed to read mapping file")
	}

	return records, nil
}

// Validate checks mapping integrity before any statements are planned:
// every source schema appears exactly once, every record is internally
// consistent, and no record maps two sources onto the same target table.
func Validate(records []Record) error {
	if len(records) == 0 {
		return errors.New(errors.ErrCodeMappingEmpty, "mapping contains no records").
			WithSuggestions("Run 'snowshift map' to generate the mapping")
	}

	seen := make(map[string]int, len(records))
	for i, record := range records {
		n := i + 1

		if record.SourceDatabase == "" {
			return recordError(n, "source_database is empty")
		}
		if record.SourceSchema == "" {
			return recordError(n, "source_schema is empty")
		}
		if record.TargetDatabaseName == "" {
			return recordError(n, "target_database_name is empty")
		}
		if record.TargetSchema == "" {
			return recordError(n, "target_schema is empty")
		}
		if !strings.HasPrefix(record.TargetSchema, record.TargetDatabaseName+".") {
			return recordError(n, fmt.Sprintf("target_schema %q is not qualified by target database %q",
				record.TargetSchema, record.TargetDatabaseName))
		}

		if prev, dup := seen[record.SourceSchema]; dup {
			return errors.New(errors.ErrCodeMappingConflict,
				fmt.Sprintf("source schema %q appears in records %d and %d", record.SourceSchema, prev, n)).
				WithContext("source_schema", record.SourceSchema)
		}
		seen[record.SourceSchema] = n

		targets := make(map[string]bool, len(record.Tables))
		for _, table := range record.Tables {
			if table.SourceTable == "" || table.TargetTable == "" {
				return recordError(n, "table entry with empty name")
			}
			if !strings.HasPrefix(table.TargetTable, record.TargetSchema+".") {
				return recordError(n, fmt.Sprintf("target table %q is not qualified by target schema %q",
					table.TargetTable, record.TargetSchema))
			}
			if targets[table.TargetTable] {
				return errors.New(errors.ErrCodeMappingConflict,
					fmt.Sprintf("record %d: duplicate target table %q", n, table.TargetTable))
			}
			targets[table.TargetTable] = true
		}
	}

	return nil
}

// DistinctTargetDatabases returns the target database names in first
// occurrence order.
func DistinctTargetDatabases(records []Record) []string {
	seen := make(map[string]bool, len(records))
	var names []string
	for _, record := range records {
		if seen[record.TargetDatabaseName] {
			continue
		}
		seen[record.TargetDatabaseName] = true
		names = append(names, record.TargetDatabaseName)
	}
	return names
}

func recordError(n int, message string) *errors.AppError {
	return errors.New(errors.ErrCodeValidationFailed, fmt.Sprintf("record %d: %s", n, message))
}
