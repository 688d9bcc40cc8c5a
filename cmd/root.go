// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is the gateway version.
var Version = "development"

func init() {
	viper.SetEnvPrefix("GATEWAY")
	viper.AutomaticEnv()
}

var rootCmd = &cobra.Command{
	Use:          "gateway",
	Short:        "A multi-database query gateway",
	SilenceUsage: true,
	Version:      Version,
}

// Execute executes the root command.
func Execute() error {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(validateConfigCmd())
	rootCmd.AddCommand(healthCmd())

	return rootCmd.Execute()
}
