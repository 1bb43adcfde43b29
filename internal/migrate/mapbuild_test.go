package migrate

import (
	"fmt"
	"testing"

	"snowshift/internal/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergedSideConn() *fakeConn {
	conn := newFakeConn()
	conn.schemas["MERGED_DB"] = []string{
		"INFORMATION_SCHEMA",
		"PUBLIC",
		"SALES__PUBLIC",
		"HR__STAGING",
	}
	conn.tables["MERGED_DB.SALES__PUBLIC"] = []string{"ORDERS", "CUSTOMERS"}
	conn.tables["MERGED_DB.HR__STAGING"] = nil
	return conn
}

func TestBuildMapping(t *testing.T) {
	conn := mergedSideConn()

	result, err := BuildMapping(conn, "MERGED_DB")
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	sales := result.Records[0]
	assert.Equal(t, "MERGED_DB", sales.SourceDatabase)
	assert.Equal(t, "SALES__PUBLIC", sales.SourceSchema)
	assert.Equal(t, "SALES", sales.TargetDatabaseName)
	assert.Equal(t, "SALES.PUBLIC", sales.TargetSchema)
	require.Len(t, sales.Tables, 2)
	assert.Equal(t, "MERGED_DB.SALES__PUBLIC.ORDERS", sales.Tables[0].SourceTable)
	assert.Equal(t, "SALES.PUBLIC.ORDERS", sales.Tables[0].TargetTable)

	hr := result.Records[1]
	assert.Equal(t, "HR.STAGING", hr.TargetSchema)
	assert.NotNil(t, hr.Tables)
	assert.Empty(t, hr.Tables)

	// PUBLIC has no delimiter so it cannot be unpacked; INFORMATION_SCHEMA
	// is never mapped at all.
	assert.Equal(t, []string{"PUBLIC"}, result.Skipped)
}

func TestBuildMappingPassesValidation(t *testing.T) {
	conn := mergedSideConn()

	result, err := BuildMapping(conn, "MERGED_DB")
	require.NoError(t, err)
	assert.NoError(t, mapping.Validate(result.Records))
}

func TestBuildMappingPropagatesSchemaError(t *testing.T) {
	conn := newFakeConn()
	conn.schemasErr["MERGED_DB"] = fmt.Errorf("does not exist or not authorized")

	_, err := BuildMapping(conn, "MERGED_DB")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorized")
}

func TestBuildMappingRequiresName(t *testing.T) {
	_, err := BuildMapping(newFakeConn(), "")
	require.Error(t, err)
}
