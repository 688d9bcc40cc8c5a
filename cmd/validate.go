// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/querygateway/gateway/cmd/flags"
	"github.com/querygateway/gateway/pkg/config"
	"github.com/querygateway/gateway/pkg/gateway"
)

func validateConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Validate the configured catalogue and role files",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cat, err := gateway.NewFileMetadataProvider(flags.MetadataFile()).Load(ctx)
			if err != nil {
				return err
			}

			roles, err := gateway.NewFileRoleProvider(flags.RolesFile()).Load(ctx)
			if err != nil {
				return err
			}

			if err := config.Validate(cat, roles); err != nil {
				return err
			}

			pterm.Success.Println("configuration is valid")
			return nil
		},
	}
	flags.GatewayConfigFlags(cmd)
	return cmd
}
