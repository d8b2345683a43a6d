package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jingkaihe/skill-doctor/pkg/healthcheck"
	"github.com/jingkaihe/skill-doctor/pkg/presenter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the structured report",
	Long:  `Print the JSON schema describing the report produced by --format json and --format yaml.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		schema, err := reportSchemaJSON()
		if err != nil {
			presenter.Error(err, "")
			os.Exit(1)
		}
		fmt.Println(schema)
	},
}

func reportSchemaJSON() (string, error) {
	data, err := json.MarshalIndent(healthcheck.ReportSchema(), "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal report schema")
	}
	return string(data), nil
}
