// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/querygateway/gateway/cmd/flags"
)

func healthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Ping every configured executor and cache provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			pl, _, err := buildPipeline(cmd.Context())
			if err != nil {
				return err
			}

			failures := pl.HealthCheck(cmd.Context())
			if len(failures) == 0 {
				pterm.Success.Println("all providers healthy")
				return nil
			}

			for id, err := range failures {
				pterm.Error.Println(fmt.Sprintf("%s: %v", id, err))
			}
			return fmt.Errorf("%d provider(s) unhealthy", len(failures))
		},
	}
	flags.GatewayConfigFlags(cmd)
	return cmd
}
