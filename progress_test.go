package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"scanbadblocks/scan"
)

func TestFormatProgressLine(t *testing.T) {
	progress := &scan.Progress{
		Pass:                scan.PassPlan{Index: 0, Direction: scan.Write, Pattern: 0x55, HasPattern: true},
		NumPasses:           2,
		BlockIndex:          0,
		NumBlocks:           3,
		BytesDone:           1024 * 1024,
		BytesPerPass:        3 * 1024 * 1024,
		Fraction:            1.0 / 6,
		Remaining:           65*time.Second + 300*time.Millisecond,
		WriteBytesPerSecond: 2 * 1024 * 1024,
	}
	require.Equal(t,
		"write pass 1/2 (pat 55):      1/     3 1.0/3.0MB 16.7% remaining=1m5s read=0.0MB/s write=2.0MB/s   ",
		formatProgressLine(progress))

	// Read-only sessions have a single pass without a pattern.
	progress.Pass = scan.PassPlan{Index: 0, Direction: scan.Read}
	progress.NumPasses = 1
	progress.Fraction = 1.0 / 3
	require.Equal(t,
		"     1/     3 1.0/3.0MB 33.3% remaining=1m5s read=0.0MB/s write=2.0MB/s   ",
		formatProgressLine(progress))
}

func TestLineProgress(t *testing.T) {
	progress := &scan.Progress{NumPasses: 1, NumBlocks: 10, BlockIndex: 4}

	var out bytes.Buffer
	sink := newLineProgress(&out, true)
	sink.Clear()
	require.Empty(t, out.String())

	sink.Update(progress)
	line := formatProgressLine(progress)
	require.Equal(t, line+"\r", out.String())

	// Clearing blanks the line once.
	out.Reset()
	sink.Clear()
	sink.Clear()
	require.Equal(t, string(bytes.Repeat([]byte{' '}, len(line)))+"\r", out.String())

	// Disabled sinks write nothing.
	out.Reset()
	disabled := newLineProgress(&out, false)
	disabled.Update(progress)
	disabled.Clear()
	require.Empty(t, out.String())
}

func TestBlockMapLines(t *testing.T) {
	blocks := make([]scan.BlockStat, 10)
	blocks[2].Errors = 1
	blocks[7].Errors = 1

	// One glyph per block, wrapped at the screen width. Errors of
	// blocks that are not done yet are not shown.
	require.Equal(t, []string{"██▒█", "██░░", "░░"}, blockMapLines(blocks, 5, 4, 3))

	// Two blocks per cell when the screen is too small.
	require.Equal(t, []string{"█▒█▒", "█"}, blockMapLines(blocks, 9, 4, 2))
	require.Equal(t, []string{"█▒░░", "░"}, blockMapLines(blocks, 2, 4, 2))

	require.Nil(t, blockMapLines(nil, 0, 4, 2))
	require.Nil(t, blockMapLines(blocks, 0, 0, 2))
}

func TestPassLabel(t *testing.T) {
	require.Equal(t, "read", passLabel(scan.PassPlan{Direction: scan.Read}))
	require.Equal(t, "write aa", passLabel(scan.PassPlan{Direction: scan.Write, Pattern: 0xaa, HasPattern: true}))
	require.Equal(t, "read 05", passLabel(scan.PassPlan{Direction: scan.Read, Pattern: 0x05, HasPattern: true}))
}

func TestStatusLines(t *testing.T) {
	blocks := make([]scan.BlockStat, 4)
	blocks[1].Errors = 2
	blocks[3].Errors = 1
	lines := statusLines(&scan.Progress{
		Pass:         scan.PassPlan{Index: 1, Direction: scan.Read, Pattern: 0x00, HasPattern: true},
		NumPasses:    2,
		BlockIndex:   1,
		NumBlocks:    4,
		BytesDone:    2048,
		BytesPerPass: 4096,
		Fraction:     0.75,
		Blocks:       blocks,
	}, 3*time.Second)
	require.Equal(t, []string{
		"Block: 2 / 4   Errors this pass: 2",
		"Done: 2K / 4K   Total: 75.0%",
		"Elapsed: 3s   Read: 0B/s   Write: 0B/s   ETA: 0s",
		"Current op: pass 2/2 (read 00)",
	}, lines)
}

func TestTUIProgressBeforeStart(t *testing.T) {
	// Until the UI is started, output is passed through and progress
	// is ignored.
	var out bytes.Buffer
	tui := newTUIProgress("/dev/sdx", &out)
	_, err := tui.Write([]byte("hello\n"))
	require.NoError(t, err)
	tui.Update(&scan.Progress{})
	tui.Clear()
	tui.Finish()
	tui.Close()
	tui.Close()
	require.Equal(t, "hello\n", out.String())
}
