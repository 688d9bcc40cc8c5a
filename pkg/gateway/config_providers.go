// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"github.com/querygateway/gateway/internal/connstr"
	"github.com/querygateway/gateway/internal/jsonschema"
	"github.com/querygateway/gateway/pkg/catalog"
)

// FileMetadataProvider loads the catalogue from a single JSON or YAML file
// on disk, the same extension-switched decode pgroll uses for migration
// files (pkg/migrations.ReadRawMigration), plus a schema pass that rejects
// unknown fields before the typed unmarshal.
type FileMetadataProvider struct {
	Path string
}

func NewFileMetadataProvider(path string) *FileMetadataProvider {
	return &FileMetadataProvider{Path: path}
}

func (p *FileMetadataProvider) Load(ctx context.Context) (*catalog.Catalogue, error) {
	raw, err := readConfigFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("loading catalogue: %w", err)
	}

	if err := jsonschema.ValidateCatalogue(raw); err != nil {
		return nil, fmt.Errorf("loading catalogue: %w", err)
	}

	var cat catalog.Catalogue
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("loading catalogue: %w", err)
	}
	return &cat, nil
}

// FileRoleProvider loads the role set from a single JSON or YAML file
// holding a top-level array of catalog.Role.
type FileRoleProvider struct {
	Path string
}

func NewFileRoleProvider(path string) *FileRoleProvider {
	return &FileRoleProvider{Path: path}
}

func (p *FileRoleProvider) Load(ctx context.Context) ([]catalog.Role, error) {
	raw, err := readConfigFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("loading roles: %w", err)
	}

	var roles []catalog.Role
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&roles); err != nil {
		return nil, fmt.Errorf("loading roles: %w", err)
	}
	return roles, nil
}

// DatabaseConn is one entry of a databases file: the catalogue database id
// it backs, the Postgres connection string to reach it, and an optional
// search_path to scope queries to a non-default schema.
type DatabaseConn struct {
	ID         string `json:"id"`
	DSN        string `json:"dsn"`
	SearchPath string `json:"searchPath,omitempty"`
}

// ConnectionString returns c.DSN with SearchPath applied as a libpq
// "options" query parameter, reusing the same connstr helper pgroll uses
// to scope a migration connection to a non-public schema.
func (c DatabaseConn) ConnectionString() (string, error) {
	if c.SearchPath == "" {
		return c.DSN, nil
	}
	return connstr.AppendSearchPathOption(c.DSN, c.SearchPath)
}

// LoadDatabaseConnections reads a databases file (a JSON or YAML array of
// DatabaseConn) the same way FileMetadataProvider/FileRoleProvider read
// their own config files. This is connection wiring, not catalogue/role
// domain data, so it lives alongside the other file-backed config loaders
// rather than inside the catalog package.
func LoadDatabaseConnections(path string) ([]DatabaseConn, error) {
	raw, err := readConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading databases file: %w", err)
	}

	var conns []DatabaseConn
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&conns); err != nil {
		return nil, fmt.Errorf("loading databases file: %w", err)
	}
	return conns, nil
}

// readConfigFile reads path and, for .yaml/.yml, converts it to the JSON
// byte stream downstream decoders expect -- YAMLToJSON so a single decode
// path (and a single jsonschema pass) covers both formats.
func readConfigFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return yaml.YAMLToJSON(raw)
	default:
		return raw, nil
	}
}
