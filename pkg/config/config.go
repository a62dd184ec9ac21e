// Package config loads and validates qms.config.json, the project marker
// file. Validation is schema-driven: the embedded JSON Schema is compiled
// once and reused, mirroring the compile-once pattern used elsewhere in
// this codebase for validating structured JSON payloads.
package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/whharris917/qms-cli/pkg/qmserrors"
)

//go:embed schema/qms_config.schema.json
var schemaFS embed.FS

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := schemaFS.ReadFile("schema/qms_config.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("load qms.config.json schema: %w", err)
			return
		}

		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			compileErr = fmt.Errorf("parse qms.config.json schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		const url = "qms-config.json"
		if err := compiler.AddResource(url, doc); err != nil {
			compileErr = fmt.Errorf("add qms.config.json schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile(url)
		if err != nil {
			compileErr = fmt.Errorf("compile qms.config.json schema: %w", err)
			return
		}
		compiledSchema = schema
	})
	return compiledSchema, compileErr
}

// Config is the decoded shape of qms.config.json.
type Config struct {
	Version         string   `json:"version"`
	Created         string   `json:"created"`
	SDLCNamespaces  []string `json:"sdlc_namespaces"`
}

// Load reads and schema-validates the project marker file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, qmserrors.Wrap(qmserrors.UninitializedProject, err, "read %s", path)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, qmserrors.Wrap(qmserrors.UninitializedProject, err, "parse %s", path)
	}

	schema, err := getSchema()
	if err != nil {
		return nil, qmserrors.Wrap(qmserrors.UninitializedProject, err, "load config schema")
	}
	if err := schema.Validate(doc); err != nil {
		return nil, qmserrors.Wrap(qmserrors.UninitializedProject, err, "%s fails schema validation", path)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, qmserrors.Wrap(qmserrors.UninitializedProject, err, "decode %s", path)
	}
	return &cfg, nil
}

// New builds a fresh Config for `init`, stamped with the current time.
func New() *Config {
	return &Config{
		Version:        "1.0",
		Created:        time.Now().UTC().Format(time.RFC3339),
		SDLCNamespaces: []string{},
	}
}

// Write serializes Config back to path.
func Write(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return qmserrors.Wrap(qmserrors.UninitializedProject, err, "marshal config")
	}
	return os.WriteFile(path, data, 0o644)
}
