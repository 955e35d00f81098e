package scan

import (
	"cmp"
	"fmt"
	"io"
	"slices"
)

const bytesPerMB = 1024.0 * 1024.0

// BlockStat holds the measurements of a single block during one pass.
type BlockStat struct {
	ElapsedSeconds float64
	Bytes          int64
	Errors         int
}

// RateMBps returns the throughput of the block in MB/s, or zero if no
// time was spent on it.
func (b BlockStat) RateMBps() float64 {
	if b.ElapsedSeconds > 0 {
		return float64(b.Bytes) / b.ElapsedSeconds / bytesPerMB
	}
	return 0
}

// Totals accumulates measurements of all blocks of all passes in one
// direction.
type Totals struct {
	ElapsedSeconds float64
	Bytes          int64
	Errors         int
}

// BytesPerSecond returns the aggregate throughput, or zero while it is
// not known yet.
func (t *Totals) BytesPerSecond() float64 {
	if t.ElapsedSeconds > 0 && t.Bytes > 0 {
		return float64(t.Bytes) / t.ElapsedSeconds
	}
	return 0
}

// RunningTotals holds the session-long totals for reads and writes.
// They are never reset during a session.
type RunningTotals struct {
	Read  Totals
	Write Totals
}

// For returns the totals of a direction.
func (rt *RunningTotals) For(d Direction) *Totals {
	if d == Write {
		return &rt.Write
	}
	return &rt.Read
}

// SlowBlockThresholds are the percentages of the median throughput
// below which blocks are reported as slow.
var SlowBlockThresholds = []float64{50, 20, 10, 5}

// SlowBlockCount is the number of blocks of a pass whose throughput is
// below Percent of the median.
type SlowBlockCount struct {
	Percent float64
	Count   int
}

// PassSummary is the end-of-pass report.
type PassSummary struct {
	Pass      PassPlan
	NumPasses int
	Errors    int

	MinMBps    float64
	AvgMBps    float64
	MedianMBps float64
	MaxMBps    float64

	// SlowBlocks only contains thresholds that at least one block
	// fell below.
	SlowBlocks []SlowBlockCount
}

// SummarizePass computes the statistics of a pass. blocks is not
// modified.
//
// The median is the rate of the element at index len/2 of the sorted
// rates. For even counts this is the element just past the midpoint
// rather than the mean of the two middle elements.
func SummarizePass(pass PassPlan, numPasses int, blocks []BlockStat) PassSummary {
	summary := PassSummary{Pass: pass, NumPasses: numPasses}
	if len(blocks) == 0 {
		return summary
	}

	sorted := slices.Clone(blocks)
	slices.SortStableFunc(sorted, func(a, b BlockStat) int {
		return cmp.Compare(a.RateMBps(), b.RateMBps())
	})
	summary.MinMBps = sorted[0].RateMBps()
	summary.MaxMBps = sorted[len(sorted)-1].RateMBps()
	summary.MedianMBps = sorted[len(sorted)/2].RateMBps()

	var totalSeconds float64
	var totalBytes int64
	for _, b := range sorted {
		totalSeconds += b.ElapsedSeconds
		totalBytes += b.Bytes
		summary.Errors += b.Errors
	}
	if totalSeconds > 0 {
		summary.AvgMBps = float64(totalBytes) / totalSeconds / bytesPerMB
	}

	for _, percent := range SlowBlockThresholds {
		limit := summary.MedianMBps * percent / 100
		count := 0
		for count < len(sorted) && sorted[count].RateMBps() < limit {
			count++
		}
		if count > 0 {
			summary.SlowBlocks = append(summary.SlowBlocks, SlowBlockCount{Percent: percent, Count: count})
		}
	}
	return summary
}

// Print writes the one-line pass summary, followed by a warning for
// every slow block threshold that was hit.
func (s *PassSummary) Print(w io.Writer) {
	fmt.Fprintf(w, "pass %d/%d (%s): %d errors (min=%.1fMB/s avg=%.1fMB/s med=%.1fMB/s max=%.1fMB/s)\n",
		s.Pass.Index+1, s.NumPasses, s.Pass.Direction, s.Errors, s.MinMBps, s.AvgMBps, s.MedianMBps, s.MaxMBps)
	for _, slow := range s.SlowBlocks {
		fmt.Fprintf(w, "Warning: Number of blocks slower than %.0f%% of median: %d\n", slow.Percent, slow.Count)
	}
}

// Result is the outcome of a complete session.
type Result struct {
	Totals RunningTotals
	Passes []PassSummary
}

// Errors returns the number of read and write errors of the session.
func (r *Result) Errors() int {
	return r.Totals.Read.Errors + r.Totals.Write.Errors
}

// OK returns true if no errors were detected.
func (r *Result) OK() bool {
	return r.Errors() == 0
}

// Print writes the aggregate transfer rates and the verdict line.
func (r *Result) Print(w io.Writer) {
	fmt.Fprintf(w, "Transfer rates: read=%.1fMB/s write=%.1fMB/s\n",
		r.Totals.Read.BytesPerSecond()/bytesPerMB, r.Totals.Write.BytesPerSecond()/bytesPerMB)
	if r.OK() {
		fmt.Fprintln(w, "OK: No errors detected.")
		return
	}
	fmt.Fprintf(w, "ERROR: %d errors detected (%d read errors, %d write errors)\n",
		r.Errors(), r.Totals.Read.Errors, r.Totals.Write.Errors)
}
