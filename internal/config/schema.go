package config

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/agentstation/xtsmerge/pkg/errors"
	schemafs "github.com/agentstation/xtsmerge/schema"
)

var (
	configSchema *jsonschema.Schema
	compileOnce  sync.Once
	compileErr   error
)

func compileSchema() error {
	compileOnce.Do(func() {
		data, err := schemafs.FS.ReadFile(schemafs.ConfigSchema)
		if err != nil {
			compileErr = fmt.Errorf("read config schema: %w", err)
			return
		}

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal config schema: %w", err)
			return
		}

		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemafs.ConfigSchema, doc); err != nil {
			compileErr = fmt.Errorf("add config schema resource: %w", err)
			return
		}

		configSchema, err = compiler.Compile(schemafs.ConfigSchema)
		if err != nil {
			compileErr = fmt.Errorf("compile config schema: %w", err)
		}
	})
	return compileErr
}

// ValidateFile checks a YAML or JSON config file against the embedded schema.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapIO("read", path, err)
	}
	if err := Validate(data); err != nil {
		return errors.NewConfigError(path, "schema validation failed", err)
	}
	return nil
}

// Validate checks YAML (or JSON) config data against the embedded schema.
// An empty document is valid.
func Validate(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := compileSchema(); err != nil {
		return err
	}

	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("convert to json: %w", err)
	}
	if trimmed := string(bytes.TrimSpace(jsonData)); trimmed == "" || trimmed == "null" {
		return nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return configSchema.Validate(doc)
}
