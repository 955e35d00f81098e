package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"scanbadblocks/scan"
)

const mb = 1024 * 1024

// lineProgress shows progress as a single status line that is rewritten
// in place using a carriage return.
type lineProgress struct {
	out     io.Writer
	enabled bool
	width   int
}

func newLineProgress(out io.Writer, enabled bool) *lineProgress {
	return &lineProgress{out: out, enabled: enabled}
}

func (p *lineProgress) Update(pr *scan.Progress) {
	if !p.enabled {
		return
	}
	line := formatProgressLine(pr)
	fmt.Fprintf(p.out, "%s\r", line)
	p.width = len(line)
}

func (p *lineProgress) Clear() {
	if p.width > 0 {
		fmt.Fprintf(p.out, "%s\r", strings.Repeat(" ", p.width))
		p.width = 0
	}
}

func formatProgressLine(p *scan.Progress) string {
	var b strings.Builder
	if p.NumPasses > 1 {
		fmt.Fprintf(&b, "%s pass %d/%d (pat %02x): ", p.Pass.Direction, p.Pass.Index+1, p.NumPasses, p.Pass.Pattern)
	}
	fmt.Fprintf(&b, "%6d/%6d %.1f/%.1fMB %4.1f%% remaining=%s read=%.1fMB/s write=%.1fMB/s   ",
		p.BlockIndex+1, p.NumBlocks,
		float64(p.BytesDone)/mb, float64(p.BytesPerPass)/mb,
		p.Fraction*100, p.Remaining.Truncate(time.Second),
		p.ReadBytesPerSecond/mb, p.WriteBytesPerSecond/mb)
	return b.String()
}
