package migrate

import (
	"fmt"

	"snowshift/internal/mapping"
	"snowshift/pkg/errors"
)

// MapResult is the mapping built from the merged database plus the
// schemas that could not be split back into a database and schema pair.
type MapResult struct {
	Records []mapping.Record
	Skipped []string
}

// BuildMapping reads the merged database layout and produces one record
// per merged schema, table names fully qualified on both sides. Schemas
// that do not split cleanly on the delimiter (the merged database's own
// PUBLIC, for one) are reported as skipped, never fatal.
func BuildMapping(conn Conn, mergedDatabase string) (*MapResult, error) {
	if mergedDatabase == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "merged database name is required")
	}

	schemas, err := conn.GetSchemas(mergedDatabase)
	if err != nil {
		return nil, err
	}

	result := &MapResult{}
	for _, schemaName := range schemas {
		if schemaName == "INFORMATION_SCHEMA" {
			continue
		}

		targetDatabase, targetSchema, ok := mapping.SplitMergedSchema(schemaName)
		if !ok {
			result.Skipped = append(result.Skipped, schemaName)
			continue
		}

		targetFQN := fmt.Sprintf("%s.%s", targetDatabase, targetSchema)
		record := mapping.Record{
			SourceDatabase:     mergedDatabase,
			SourceSchema:       schemaName,
			TargetDatabaseName: targetDatabase,
			TargetSchema:       targetFQN,
			Tables:             []mapping.Table{},
		}

		tables, err := conn.GetTables(mergedDatabase, schemaName)
		if err != nil {
			return nil, err
		}
		for _, table := range tables {
			record.Tables = append(record.Tables, mapping.Table{
				SourceTable: fmt.Sprintf("%s.%s.%s", mergedDatabase, schemaName, table),
				TargetTable: fmt.Sprintf("%s.%s", targetFQN, table),
			})
		}

		result.Records = append(result.Records, record)
	}

	return result, nil
}
