package scan_test

import (
	"bytes"
	"testing"

	"scanbadblocks/scan"

	"github.com/stretchr/testify/require"
)

const mb = 1024 * 1024

func blocksWithRate(n int, bytesPerBlock int64, elapsedSeconds float64) []scan.BlockStat {
	blocks := make([]scan.BlockStat, n)
	for i := range blocks {
		blocks[i] = scan.BlockStat{ElapsedSeconds: elapsedSeconds, Bytes: bytesPerBlock}
	}
	return blocks
}

func TestSummarizePass(t *testing.T) {
	readPass := scan.PassPlan{Index: 1, Direction: scan.Read}

	t.Run("Empty", func(t *testing.T) {
		require.Equal(t, scan.PassSummary{Pass: readPass, NumPasses: 2}, scan.SummarizePass(readPass, 2, nil))
	})

	t.Run("Uniform", func(t *testing.T) {
		summary := scan.SummarizePass(readPass, 2, blocksWithRate(10, 10*mb, 1))
		require.Equal(t, 0, summary.Errors)
		require.Equal(t, 10.0, summary.MinMBps)
		require.Equal(t, 10.0, summary.AvgMBps)
		require.Equal(t, 10.0, summary.MedianMBps)
		require.Equal(t, 10.0, summary.MaxMBps)
		require.Empty(t, summary.SlowBlocks)
	})

	t.Run("MedianOfEvenCount", func(t *testing.T) {
		// The median is the element at index n/2 of the sorted rates.
		summary := scan.SummarizePass(readPass, 2, []scan.BlockStat{
			{ElapsedSeconds: 1, Bytes: 4 * mb},
			{ElapsedSeconds: 1, Bytes: 1 * mb},
			{ElapsedSeconds: 1, Bytes: 3 * mb},
			{ElapsedSeconds: 1, Bytes: 2 * mb},
		})
		require.Equal(t, 1.0, summary.MinMBps)
		require.Equal(t, 3.0, summary.MedianMBps)
		require.Equal(t, 4.0, summary.MaxMBps)
		require.Equal(t, 2.5, summary.AvgMBps)
	})

	t.Run("SlowBlocksBelowHalfMedianOnly", func(t *testing.T) {
		// 0.5 MB/s is below 50%, 20% and 10% of the median, but not
		// strictly below 5% of it.
		blocks := append(blocksWithRate(94, 10*mb, 1), blocksWithRate(6, 1*mb, 2)...)
		summary := scan.SummarizePass(readPass, 2, blocks)
		require.Equal(t, 10.0, summary.MedianMBps)
		require.Equal(t, 0.5, summary.MinMBps)
		require.InDelta(t, 946.0/106.0, summary.AvgMBps, 1e-9)
		require.Equal(t, []scan.SlowBlockCount{
			{Percent: 50, Count: 6},
			{Percent: 20, Count: 6},
			{Percent: 10, Count: 6},
		}, summary.SlowBlocks)
	})

	t.Run("SlowBlocksExactlyAtThreshold", func(t *testing.T) {
		// 1 MB/s is exactly 10% of the median. Only blocks strictly
		// below a threshold are counted, so there is no 10% entry.
		blocks := append(blocksWithRate(94, 10*mb, 1), blocksWithRate(6, 1*mb, 1)...)
		summary := scan.SummarizePass(readPass, 2, blocks)
		require.Equal(t, 10.0, summary.MedianMBps)
		require.Equal(t, 1.0, summary.MinMBps)
		require.Equal(t, []scan.SlowBlockCount{
			{Percent: 50, Count: 6},
			{Percent: 20, Count: 6},
		}, summary.SlowBlocks)

		var out bytes.Buffer
		summary.Print(&out)
		require.NotContains(t, out.String(), "slower than 10%")
	})

	t.Run("SlowBlocksAtEveryThreshold", func(t *testing.T) {
		var blocks []scan.BlockStat
		blocks = append(blocks, blocksWithRate(3, 4*mb, 10)...) // 0.4 MB/s
		blocks = append(blocks, blocksWithRate(3, 9*mb, 10)...) // 0.9 MB/s
		blocks = append(blocks, blocksWithRate(4, 3*mb, 1)...)  // 3 MB/s
		blocks = append(blocks, blocksWithRate(90, 10*mb, 1)...)
		summary := scan.SummarizePass(readPass, 2, blocks)
		require.Equal(t, 10.0, summary.MedianMBps)
		require.Equal(t, []scan.SlowBlockCount{
			{Percent: 50, Count: 10},
			{Percent: 20, Count: 6},
			{Percent: 10, Count: 6},
			{Percent: 5, Count: 3},
		}, summary.SlowBlocks)
	})

	t.Run("FailedBlocks", func(t *testing.T) {
		// Blocks that failed took no measurable time and have a
		// throughput of zero.
		blocks := []scan.BlockStat{
			{Errors: 1},
			{ElapsedSeconds: 1, Bytes: mb},
			{ElapsedSeconds: 1, Bytes: mb},
		}
		original := append([]scan.BlockStat(nil), blocks...)
		summary := scan.SummarizePass(readPass, 2, blocks)
		require.Equal(t, original, blocks)
		require.Equal(t, 1, summary.Errors)
		require.Equal(t, 0.0, summary.MinMBps)
		require.Equal(t, 1.0, summary.MedianMBps)
		require.Equal(t, 1.0, summary.AvgMBps)
		require.Equal(t, []scan.SlowBlockCount{
			{Percent: 50, Count: 1},
			{Percent: 20, Count: 1},
			{Percent: 10, Count: 1},
			{Percent: 5, Count: 1},
		}, summary.SlowBlocks)
	})
}

func TestPassSummaryPrint(t *testing.T) {
	summary := scan.PassSummary{
		Pass:       scan.PassPlan{Index: 1, Direction: scan.Read},
		NumPasses:  2,
		Errors:     3,
		MinMBps:    1,
		AvgMBps:    2,
		MedianMBps: 3,
		MaxMBps:    4,
		SlowBlocks: []scan.SlowBlockCount{{Percent: 50, Count: 6}, {Percent: 5, Count: 1}},
	}
	var out bytes.Buffer
	summary.Print(&out)
	require.Equal(t,
		"pass 2/2 (read): 3 errors (min=1.0MB/s avg=2.0MB/s med=3.0MB/s max=4.0MB/s)\n"+
			"Warning: Number of blocks slower than 50% of median: 6\n"+
			"Warning: Number of blocks slower than 5% of median: 1\n",
		out.String())
}

func TestResultPrint(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		result := scan.Result{Totals: scan.RunningTotals{
			Read:  scan.Totals{ElapsedSeconds: 1, Bytes: 2 * mb},
			Write: scan.Totals{ElapsedSeconds: 4, Bytes: 2 * mb},
		}}
		require.True(t, result.OK())
		var out bytes.Buffer
		result.Print(&out)
		require.Equal(t, "Transfer rates: read=2.0MB/s write=0.5MB/s\nOK: No errors detected.\n", out.String())
	})

	t.Run("Errors", func(t *testing.T) {
		result := scan.Result{Totals: scan.RunningTotals{
			Read:  scan.Totals{Errors: 2},
			Write: scan.Totals{Errors: 1},
		}}
		require.False(t, result.OK())
		require.Equal(t, 3, result.Errors())
		var out bytes.Buffer
		result.Print(&out)
		require.Equal(t, "Transfer rates: read=0.0MB/s write=0.0MB/s\nERROR: 3 errors detected (2 read errors, 1 write errors)\n", out.String())
	})
}

func TestTotalsBytesPerSecond(t *testing.T) {
	require.Equal(t, 0.0, (&scan.Totals{}).BytesPerSecond())
	require.Equal(t, 0.0, (&scan.Totals{Bytes: 100}).BytesPerSecond())
	require.Equal(t, 0.0, (&scan.Totals{ElapsedSeconds: 1}).BytesPerSecond())
	require.Equal(t, 50.0, (&scan.Totals{ElapsedSeconds: 2, Bytes: 100}).BytesPerSecond())
}
