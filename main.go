// scanbadblocks checks block devices for bad blocks.
// Cobra CLI + optional tcell fullscreen UI showing one glyph per block.
//
// Every block of the device is read, or overwritten with an address
// dependent pattern and read back, so that unreadable blocks as well
// as fake capacity devices are detected.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"scanbadblocks/blockdevice"
	"scanbadblocks/scan"
)

var version = "1.0.3"

func must(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
}

// parseSize parses sizes such as 512, 4k, 4MB, 1.5GiB or 1t. Units are
// powers of 1024.
func parseSize(s string) (int64, error) {
	ss := strings.TrimSpace(strings.ToLower(s))
	if ss == "" {
		return 0, fmt.Errorf("empty size")
	}
	num := strings.TrimRight(ss, "kmgtib")
	var mult float64
	switch ss[len(num):] {
	case "", "b":
		mult = 1
	case "k", "kb", "kib":
		mult = 1 << 10
	case "m", "mb", "mib":
		mult = 1 << 20
	case "g", "gb", "gib":
		mult = 1 << 30
	case "t", "tb", "tib":
		mult = 1 << 40
	default:
		return 0, fmt.Errorf("invalid size %q", s)
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	if !(v > 0) {
		return 0, fmt.Errorf("size must be positive, got %q", s)
	}
	// float64(math.MaxInt64) rounds up to 2^63.
	sizeBytes := v * mult
	if sizeBytes >= math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", s)
	}
	return int64(sizeBytes), nil
}

// parsePatterns parses a comma separated list of hexadecimal byte
// values, such as "55,aa,00,ff".
func parsePatterns(s string) ([]byte, error) {
	var patterns []byte
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(field)), "0x")
		v, err := strconv.ParseUint(field, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: expected a hexadecimal byte value", field)
		}
		patterns = append(patterns, byte(v))
	}
	return patterns, nil
}

func human(b int64) string {
	if b >= 1024*1024*1024 {
		return fmt.Sprintf("%.1fG", float64(b)/(1024*1024*1024))
	}
	if b >= 1024*1024 {
		return fmt.Sprintf("%dM", b/(1024*1024))
	}
	if b >= 1024 {
		return fmt.Sprintf("%dK", b/1024)
	}
	return fmt.Sprintf("%dB", b)
}

// confirmOverwrite asks for OVERWRITE to be typed before any data is
// destroyed.
func confirmOverwrite(in io.Reader, out io.Writer, name string) bool {
	fmt.Fprintf(out, "Please enter OVERWRITE and press enter to confirm deleting all data on '%s':\n", name)
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimRight(line, "\r\n") == "OVERWRITE"
}

type scanOptions struct {
	blockSize   string
	overwrite   int
	patterns    string
	outfile     string
	verbose     int
	tui         bool
	metricsFile string
	configPath  string
	force       bool
}

// runScan checks target, which is the storage behind path. path is used
// for existence and mount checks and in messages.
func runScan(opts *scanOptions, path string, target blockdevice.Target, stdin io.Reader, stdout, stderr io.Writer) error {
	// Raw Windows devices cannot be stat'ed; opening them reports errors.
	if !blockdevice.IsRawDevicePath(path) {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("File '%s' does not exist!", path)
			}
			return err
		}
	}
	blockSize, err := parseSize(opts.blockSize)
	if err != nil {
		return fmt.Errorf("--block-size: %w", err)
	}
	patterns, err := parsePatterns(opts.patterns)
	if err != nil {
		return fmt.Errorf("--pattern: %w", err)
	}
	overwrite := opts.overwrite > 0
	if overwrite {
		if err := checkNotMounted(path, opts.force, stderr); err != nil {
			return err
		}
	}

	var recorder scan.PassRecorder
	if opts.outfile != "" {
		recorder = scan.CSVFileRecorder{Prefix: opts.outfile}
	}
	var sink scan.ProgressSink
	var tui *tuiProgress
	out := stdout
	if opts.tui {
		tui = newTUIProgress(path, stdout)
		sink = tui
		out = tui
	} else {
		sink = newLineProgress(stdout, isTerminal(stdout))
	}

	checker, err := scan.NewBlockChecker(scan.Config{
		Name:           path,
		Target:         target,
		BlockSizeBytes: blockSize,
		Patterns:       patterns,
		Overwrite:      overwrite,
		Output:         out,
		Progress:       sink,
		Recorder:       recorder,
		Verbose:        opts.verbose,
	})
	if err != nil {
		return err
	}
	if overwrite && opts.overwrite < 2 {
		if !confirmOverwrite(stdin, stdout, path) {
			fmt.Fprintln(stdout, "Not confirmed. Exiting.")
			return nil
		}
	}

	if tui != nil {
		if err := tui.Start(checker.Session()); err != nil {
			return err
		}
		defer tui.Close()
	}
	result, err := checker.Run()
	if tui != nil {
		tui.Finish()
		tui.Close()
	}
	if err != nil {
		return err
	}
	result.Print(stdout)

	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, scan.Registry); err != nil {
			return fmt.Errorf("cannot write metrics to '%s': %w", opts.metricsFile, err)
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func main() {
	opts := &scanOptions{}
	root := &cobra.Command{
		Use:   "scanbadblocks [flags] BLOCK_DEVICE",
		Short: "Check a block device by reading all blocks and optionally writing them",
		Long: "Check a block device by reading all blocks and optionally writing them.\n\n" +
			"Read and write errors, blocks whose content does not match what was written\n" +
			"and blocks that are much slower than the median are reported.",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if opts.configPath != "" {
				config, err := loadScanConfig(opts.configPath)
				if err != nil {
					return err
				}
				config.applyTo(opts, cmd.Flags())
			}
			return runScan(opts, args[0], blockdevice.NewFileTarget(args[0]), os.Stdin, os.Stdout, os.Stderr)
		},
	}

	flags := root.Flags()
	flags.StringVarP(&opts.blockSize, "block-size", "b", "4M", "granularity of reads/writes in bytes (suffixes k, m, g, t, optionally followed by b or ib)")
	flags.CountVarP(&opts.overwrite, "overwrite", "w", "overwrite the device with a known pattern and read it back; this DESTROYS ALL DATA on the device; "+
		"specify twice to skip the interactive confirmation")
	flags.StringVarP(&opts.patterns, "pattern", "p", "00", "comma separated hexadecimal byte values for --overwrite, one write and one read pass each (e.g. 55,aa,00,ff)")
	flags.StringVarP(&opts.outfile, "outfile", "o", "", "write per-block timings to CSV files named PREFIX_PASS_DISKSIZE.txt")
	flags.CountVarP(&opts.verbose, "verbose", "v", "increase verbosity; specify multiple times to be more verbose")
	flags.BoolVar(&opts.tui, "tui", false, "show a fullscreen block map while scanning")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file when done")
	flags.StringVar(&opts.configPath, "config", "", "Jsonnet file providing defaults for the flags above ('-' for stdin)")
	flags.BoolVar(&opts.force, "force", false, "overwrite even if the device or one of its partitions is mounted")

	root.AddCommand(newDeviceCommand())

	must(root.Execute())
}
