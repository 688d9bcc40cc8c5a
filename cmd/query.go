// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/querygateway/gateway/cmd/flags"
	"github.com/querygateway/gateway/pkg/catalog"
	"github.com/querygateway/gateway/pkg/query"
)

type queryFile struct {
	Query            query.Query              `json:"query"`
	ExecutionContext catalog.ExecutionContext `json:"executionContext"`
}

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "query <file>",
		Short:     "Run a query definition from a file against the configured databases",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"file"},
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var qf queryFile
			if err := json.Unmarshal(raw, &qf); err != nil {
				return fmt.Errorf("parsing query file: %w", err)
			}

			pl, _, err := buildPipeline(cmd.Context())
			if err != nil {
				return err
			}

			res, err := pl.Run(cmd.Context(), &qf.Query, qf.ExecutionContext)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	flags.GatewayConfigFlags(cmd)
	return cmd
}
