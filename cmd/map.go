package cmd

import (
	"encoding/json"
	"fmt"

	"snowshift/internal/mapping"
	"snowshift/internal/migrate"
	"snowshift/internal/ui"

	"github.com/spf13/cobra"
)

var (
	mapDatabase string
	mapOutput   string
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Write the mapping file that unpacks the merged database",
	Long: `Map inspects the merged database and records where every schema and
table should land on the destination account: one JSON line per merged
schema, table names fully qualified on both sides.

Schemas whose name does not split on the __ delimiter, such as the
merged database's own PUBLIC schema, are reported and skipped.`,
	RunE: runMap,
}

func init() {
	mapCmd.Flags().StringVarP(&mapDatabase, "merged-db", "d", "", "Merged database name (default from config)")
	mapCmd.Flags().StringVarP(&mapOutput, "out", "o", "", "Mapping file to write (default from config)")
	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if mapDatabase != "" {
		cfg.Migration.MergedDatabase = mapDatabase
	}
	if mapOutput != "" {
		cfg.Migration.MappingFile = mapOutput
	}

	ui.ShowHeader("Build Mapping")

	service, err := connect(cfg, connectionRequirements...)
	if err != nil {
		return err
	}
	defer service.Close()

	out := ui.NewUI(verbose, false)
	out.StartProgress(fmt.Sprintf("Reading the layout of %s...", cfg.Migration.MergedDatabase))
	result, err := migrate.BuildMapping(service, cfg.Migration.MergedDatabase)
	if err != nil {
		out.StopProgressWith(false, "Mapping failed")
		return err
	}
	out.StopProgressWith(true, fmt.Sprintf("Mapped %d schemas", len(result.Records)))

	for _, name := range result.Skipped {
		ui.ShowWarning(fmt.Sprintf("Skipping schema %s: name does not split on %s", name, mapping.Delimiter))
	}

	if err := mapping.Validate(result.Records); err != nil {
		return err
	}

	if dryRun {
		for _, record := range result.Records {
			line, err := json.Marshal(record)
			if err != nil {
				return err
			}
			fmt.Println(string(line))
		}
		return nil
	}

	if err := mapping.Write(cfg.Migration.MappingFile, result.Records); err != nil {
		return err
	}

	tables := 0
	for _, record := range result.Records {
		tables += len(record.Tables)
	}
	ui.ShowSuccess(fmt.Sprintf("Wrote %d records covering %d tables to %s",
		len(result.Records), tables, cfg.Migration.MappingFile))
	return nil
}
