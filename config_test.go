package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func newScanFlags(opts *scanOptions) *pflag.FlagSet {
	flags := pflag.NewFlagSet("scanbadblocks", pflag.ContinueOnError)
	flags.StringVarP(&opts.blockSize, "block-size", "b", "4M", "")
	flags.StringVarP(&opts.patterns, "pattern", "p", "00", "")
	flags.StringVarP(&opts.outfile, "outfile", "o", "", "")
	flags.CountVarP(&opts.verbose, "verbose", "v", "")
	flags.BoolVar(&opts.tui, "tui", false, "")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "")
	return flags
}

func TestEvaluateScanConfig(t *testing.T) {
	t.Run("Full", func(t *testing.T) {
		config, err := evaluateScanConfig("scan.jsonnet", `
			local prefix = std.extVar("SCAN_DIR") + "/timings";
			{
				block_size: "1M",
				patterns: std.join(",", ["55", "aa"]),
				outfile: prefix,
				verbose: 2,
				tui: false,
				metrics_file: std.extVar("SCAN_DIR") + "/scan.prom",
			}`, []string{"SCAN_DIR=/var/tmp", "EMPTY="})
		require.NoError(t, err)
		require.Equal(t, "1M", *config.BlockSize)
		require.Equal(t, "55,aa", *config.Patterns)
		require.Equal(t, "/var/tmp/timings", *config.Outfile)
		require.Equal(t, 2, *config.Verbose)
		require.False(t, *config.TUI)
		require.Equal(t, "/var/tmp/scan.prom", *config.MetricsFile)
	})

	t.Run("Partial", func(t *testing.T) {
		config, err := evaluateScanConfig("scan.jsonnet", `{ block_size: "64k" }`, nil)
		require.NoError(t, err)
		require.Equal(t, "64k", *config.BlockSize)
		require.Nil(t, config.Patterns)
		require.Nil(t, config.Verbose)
	})

	t.Run("UnknownField", func(t *testing.T) {
		_, err := evaluateScanConfig("scan.jsonnet", `{ blocksize: "64k" }`, nil)
		require.ErrorContains(t, err, "failed to unmarshal configuration")
	})

	t.Run("SyntaxError", func(t *testing.T) {
		_, err := evaluateScanConfig("scan.jsonnet", `{ block_size: `, nil)
		require.ErrorContains(t, err, "failed to evaluate configuration")
	})

	t.Run("MissingExtVar", func(t *testing.T) {
		_, err := evaluateScanConfig("scan.jsonnet", `{ outfile: std.extVar("NOPE") }`, nil)
		require.ErrorContains(t, err, "failed to evaluate configuration")
	})

	t.Run("InvalidEnvironment", func(t *testing.T) {
		_, err := evaluateScanConfig("scan.jsonnet", `{}`, []string{"BROKEN"})
		require.ErrorContains(t, err, "invalid environment variable")
	})
}

func TestLoadScanConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.jsonnet")
	require.NoError(t, os.WriteFile(path, []byte(`{ patterns: "ff" }`), 0o644))
	config, err := loadScanConfig(path)
	require.NoError(t, err)
	require.Equal(t, "ff", *config.Patterns)

	_, err = loadScanConfig(filepath.Join(t.TempDir(), "missing.jsonnet"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestScanConfigApplyTo(t *testing.T) {
	config, err := evaluateScanConfig("scan.jsonnet", `{
		block_size: "1M",
		patterns: "55,aa",
		outfile: "timings",
		verbose: 1,
		tui: true,
		metrics_file: "scan.prom",
	}`, nil)
	require.NoError(t, err)

	// Flags set on the command line take precedence.
	opts := &scanOptions{}
	flags := newScanFlags(opts)
	require.NoError(t, flags.Parse([]string{"-b", "8k", "-vv"}))
	config.applyTo(opts, flags)
	require.Equal(t, &scanOptions{
		blockSize:   "8k",
		patterns:    "55,aa",
		outfile:     "timings",
		verbose:     2,
		tui:         true,
		metricsFile: "scan.prom",
	}, opts)

	// Absent fields keep the flag defaults.
	empty, err := evaluateScanConfig("scan.jsonnet", `{}`, nil)
	require.NoError(t, err)
	opts = &scanOptions{}
	flags = newScanFlags(opts)
	require.NoError(t, flags.Parse(nil))
	empty.applyTo(opts, flags)
	require.Equal(t, &scanOptions{blockSize: "4M", patterns: "00"}, opts)
}
