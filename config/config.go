// Package config loads the settings of the calculator REPL.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/zephyrtronium/calc"
)

// Commands are the words the REPL treats as commands rather than
// expressions.
type Commands struct {
	// End saves the environment and quits.
	End string `json:"end" yaml:"end"`
	// Help prints the help file.
	Help string `json:"help" yaml:"help"`
	// History prints the table of recent results. It may be followed by a
	// count or "all".
	History string `json:"history" yaml:"history"`
	// EmptyInput is a line that does nothing, in addition to the empty line.
	EmptyInput string `json:"empty_input" yaml:"empty_input"`
}

// Config is the REPL configuration.
type Config struct {
	PathFileHelp      string   `json:"path_file_help" yaml:"path_file_help"`
	Commands          Commands `json:"commands" yaml:"commands"`
	OutputLineHistory int      `json:"output_line_history" yaml:"output_line_history"`
	MaxSizeHistory    int      `json:"max_size_history" yaml:"max_size_history"`
	MaxNumberVariable int      `json:"max_number_variable" yaml:"max_number_variable"`
}

// Default returns the configuration used when a file leaves fields out.
func Default() *Config {
	l := calc.DefaultLimits()
	return &Config{
		PathFileHelp: "help.txt",
		Commands: Commands{
			End:        "/end",
			Help:       "/help",
			History:    "/history",
			EmptyInput: "",
		},
		OutputLineHistory: 10,
		MaxSizeHistory:    l.MaxSizeHistory,
		MaxNumberVariable: l.MaxNumberVariable,
	}
}

// Load reads a configuration file. Files named *.yaml or *.yml are YAML;
// anything else is JSON. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, cfg)
	default:
		err = json.Unmarshal(b, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports problems that would make the REPL unusable.
func (c *Config) Validate() error {
	var err error
	if c.Commands.End == "" {
		err = multierr.Append(err, errors.New("commands.end is empty"))
	}
	if c.Commands.Help == "" {
		err = multierr.Append(err, errors.New("commands.help is empty"))
	}
	if c.Commands.History == "" {
		err = multierr.Append(err, errors.New("commands.history is empty"))
	}
	if c.OutputLineHistory < 0 {
		err = multierr.Append(err, fmt.Errorf("output_line_history must not be negative, not %d", c.OutputLineHistory))
	}
	if c.MaxSizeHistory < 1 {
		err = multierr.Append(err, fmt.Errorf("max_size_history must be positive, not %d", c.MaxSizeHistory))
	}
	if c.MaxNumberVariable < 1 {
		err = multierr.Append(err, fmt.Errorf("max_number_variable must be positive, not %d", c.MaxNumberVariable))
	}
	return err
}

// Limits returns the environment capacities the configuration sets.
func (c *Config) Limits() calc.Limits {
	return calc.Limits{
		MaxSizeHistory:    c.MaxSizeHistory,
		MaxNumberVariable: c.MaxNumberVariable,
	}
}
