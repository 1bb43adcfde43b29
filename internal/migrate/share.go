package migrate

import (
	"fmt"

	"snowshift/pkg/errors"
)

// ShareOptions name the share, the database it exposes, and the account
// granted access to it.
type ShareOptions struct {
	MergedDatabase     string
	ShareName          string
	DestinationAccount string
}

// PlanShare builds the statement list that exposes the merged database
// to the destination account through a native share.
func PlanShare(opts ShareOptions) ([]Statement, error) {
	if opts.MergedDatabase == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "merged database name is required")
	}
	if opts.ShareName == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "share name is required")
	}
	if opts.DestinationAccount == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "destination account is required").
			WithSuggestions("Set DESTINATION_ACCOUNT or pass --destination-account")
	}

	return []Statement{
		{Object: opts.ShareName,
			SQL: fmt.Sprintf("CREATE SHARE IF NOT EXISTS %s", opts.ShareName)},
		{Object: opts.MergedDatabase,
			SQL: fmt.Sprintf("GRANT USAGE ON DATABASE %s TO SHARE %s", opts.MergedDatabase, opts.ShareName)},
		{Object: opts.MergedDatabase,
			SQL: fmt.Sprintf("GRANT USAGE ON ALL SCHEMAS IN DATABASE %s TO SHARE %s", opts.MergedDatabase, opts.ShareName)},
		{Object: opts.MergedDatabase,
			SQL: fmt.Sprintf("GRANT SELECT ON ALL TABLES IN DATABASE %s TO SHARE %s", opts.MergedDatabase, opts.ShareName)},
		{Object: opts.DestinationAccount,
			SQL: fmt.Sprintf("ALTER SHARE %s ADD ACCOUNTS = %s", opts.ShareName, opts.DestinationAccount)},
	}, nil
}
