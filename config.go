package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/go-jsonnet"
	"github.com/spf13/pflag"
)

// scanConfig holds flag defaults loaded from a configuration file. Fields
// that are absent from the file are left nil.
type scanConfig struct {
	BlockSize   *string `json:"block_size"`
	Patterns    *string `json:"patterns"`
	Outfile     *string `json:"outfile"`
	Verbose     *int    `json:"verbose"`
	TUI         *bool   `json:"tui"`
	MetricsFile *string `json:"metrics_file"`
}

// loadScanConfig reads a Jsonnet file, evaluates it and decodes the
// output. Environment variables of the current process are available
// through std.extVar().
func loadScanConfig(path string) (*scanConfig, error) {
	var jsonnetInput []byte
	var err error
	if path == "-" {
		jsonnetInput, err = io.ReadAll(os.Stdin)
	} else {
		jsonnetInput, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	return evaluateScanConfig(path, string(jsonnetInput), os.Environ())
}

func evaluateScanConfig(filename, snippet string, environ []string) (*scanConfig, error) {
	vm := jsonnet.MakeVM()
	for _, env := range environ {
		name, value, ok := strings.Cut(env, "=")
		if !ok {
			return nil, fmt.Errorf("invalid environment variable: %#v", env)
		}
		vm.ExtVar(name, value)
	}
	jsonnetOutput, err := vm.EvaluateAnonymousSnippet(filename, snippet)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate configuration: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewBufferString(jsonnetOutput))
	decoder.DisallowUnknownFields()
	var config scanConfig
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return &config, nil
}

// applyTo copies configured values into opts, except for options whose
// flag was set explicitly on the command line.
func (c *scanConfig) applyTo(opts *scanOptions, flags *pflag.FlagSet) {
	if c.BlockSize != nil && !flags.Changed("block-size") {
		opts.blockSize = *c.BlockSize
	}
	if c.Patterns != nil && !flags.Changed("pattern") {
		opts.patterns = *c.Patterns
	}
	if c.Outfile != nil && !flags.Changed("outfile") {
		opts.outfile = *c.Outfile
	}
	if c.Verbose != nil && !flags.Changed("verbose") {
		opts.verbose = *c.Verbose
	}
	if c.TUI != nil && !flags.Changed("tui") {
		opts.tui = *c.TUI
	}
	if c.MetricsFile != nil && !flags.Changed("metrics-file") {
		opts.metricsFile = *c.MetricsFile
	}
}
