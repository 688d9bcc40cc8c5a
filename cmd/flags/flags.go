// SPDX-License-Identifier: Apache-2.0

package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func MetadataFile() string {
	return viper.GetString("METADATA_FILE")
}

func RolesFile() string {
	return viper.GetString("ROLES_FILE")
}

func DatabasesFile() string {
	return viper.GetString("DATABASES_FILE")
}

func CacheTable() string {
	return viper.GetString("CACHE_TABLE")
}

func TrinoEnabled() bool {
	return viper.GetBool("TRINO_ENABLED")
}

// GatewayConfigFlags registers the flags every gateway subcommand that
// builds a registry/pipeline needs, binding each to a GATEWAY_-prefixed
// environment variable the same way the teacher binds PG_URL/SCHEMA.
func GatewayConfigFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("metadata-file", "gateway.catalogue.json", "Path to the catalogue metadata file (JSON or YAML)")
	cmd.PersistentFlags().String("roles-file", "gateway.roles.json", "Path to the role definitions file (JSON or YAML)")
	cmd.PersistentFlags().String("databases-file", "gateway.databases.json", "Path to a file mapping database ids to Postgres connection strings")
	cmd.PersistentFlags().String("cache-table", "gateway_cache", "Table name used by the Postgres-backed cache provider")
	cmd.PersistentFlags().Bool("trino", false, "Enable the federated (Trino) planning strategy for cross-database queries")

	viper.BindPFlag("METADATA_FILE", cmd.PersistentFlags().Lookup("metadata-file"))
	viper.BindPFlag("ROLES_FILE", cmd.PersistentFlags().Lookup("roles-file"))
	viper.BindPFlag("DATABASES_FILE", cmd.PersistentFlags().Lookup("databases-file"))
	viper.BindPFlag("CACHE_TABLE", cmd.PersistentFlags().Lookup("cache-table"))
	viper.BindPFlag("TRINO_ENABLED", cmd.PersistentFlags().Lookup("trino"))
}
