// Package config loads the docsci YAML configuration and applies
// defaults so the rest of the tool never sees zero values.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SourceConfig describes the source module tree scanned by the
// registry completeness check.
type SourceConfig struct {
	Root string `yaml:"root"`
	// Ext is the source module extension, dot included.
	Ext string `yaml:"ext,omitempty"`
	// Namespaces are the path segments whose modules must appear in
	// the registry file.
	Namespaces []string `yaml:"namespaces,omitempty"`
	// DeprecatedPattern marks a module as superseded and exempt from
	// the registry check. Matched against whole-file content.
	DeprecatedPattern string `yaml:"deprecated_pattern,omitempty"`
}

// DocsConfig describes the documentation tree.
type DocsConfig struct {
	Root string `yaml:"root"`
	// Registry is the file enumerating documented modules.
	Registry string `yaml:"registry,omitempty"`
	// RegistryExceptions are module names allowed to be absent.
	RegistryExceptions []string `yaml:"registry_exceptions,omitempty"`
}

// OutputConfig holds the two build output directories.
type OutputConfig struct {
	SiteDir    string `yaml:"site_dir,omitempty"`
	DoctreeDir string `yaml:"doctree_dir,omitempty"`
}

// SphinxConfig configures the external generator invocation.
type SphinxConfig struct {
	Binary  string `yaml:"binary,omitempty"`
	Builder string `yaml:"builder,omitempty"`
}

// SandboxConfig configures the isolated-build-environment branch.
type SandboxConfig struct {
	// Marker is a file whose presence selects the sandboxed branch.
	Marker string `yaml:"marker,omitempty"`
	// OwnerEnv and GroupEnv name the environment variables holding the
	// host uid/gid used to restore ownership on exit.
	OwnerEnv string `yaml:"owner_env,omitempty"`
	GroupEnv string `yaml:"group_env,omitempty"`
}

// HistoryConfig enables the sqlite run history when Path is set.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig enables the prometheus textfile when Textfile is set.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// Config is the top-level docsci configuration.
type Config struct {
	Source  SourceConfig  `yaml:"source"`
	Docs    DocsConfig    `yaml:"docs"`
	Output  OutputConfig  `yaml:"output"`
	Sphinx  SphinxConfig  `yaml:"sphinx"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	History HistoryConfig `yaml:"history,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists; absence is a note, not an error.
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

// Default returns a configuration with all defaults applied and no
// file read. Used by commands that can run without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Source.Root == "" {
		c.Source.Root = "."
	}
	if c.Source.Ext == "" {
		c.Source.Ext = ".py"
	}
	if len(c.Source.Namespaces) == 0 {
		c.Source.Namespaces = []string{"operators", "hooks", "sensors"}
	}
	if c.Source.DeprecatedPattern == "" {
		c.Source.DeprecatedPattern = "This module is deprecated"
	}
	if c.Docs.Root == "" {
		c.Docs.Root = "docs"
	}
	if c.Docs.Registry == "" {
		c.Docs.Registry = "docs/code.rst"
	}
	if c.Output.SiteDir == "" {
		c.Output.SiteDir = "docs/_build"
	}
	if c.Output.DoctreeDir == "" {
		c.Output.DoctreeDir = "docs/_doctrees"
	}
	if c.Sphinx.Binary == "" {
		c.Sphinx.Binary = "sphinx-build"
	}
	if c.Sphinx.Builder == "" {
		c.Sphinx.Builder = "html"
	}
	if c.Sandbox.Marker == "" {
		c.Sandbox.Marker = "/.dockerenv"
	}
	if c.Sandbox.OwnerEnv == "" {
		c.Sandbox.OwnerEnv = "HOST_USER_ID"
	}
	if c.Sandbox.GroupEnv == "" {
		c.Sandbox.GroupEnv = "HOST_GROUP_ID"
	}
}
