package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"scanbadblocks/retrodfrg"
	"scanbadblocks/scan"
)

const (
	glyphOK      = '█'
	glyphError   = '▒'
	glyphPending = '░'

	// recentLines is the number of output lines shown below the title.
	recentLines = 3
)

// tuiProgress draws a fullscreen map with one glyph per block (or per
// group of blocks on large devices). Output lines written while the UI
// is active are held back and written to stdout once it is closed.
type tuiProgress struct {
	name   string
	stdout io.Writer

	lock      sync.Mutex
	ui        *retrodfrg.UI
	startTime time.Time
	plan      []scan.PassPlan
	held      bytes.Buffer
	recent    []string
	closeOnce sync.Once
	closed    chan struct{}
	finishing atomic.Bool
}

func newTUIProgress(name string, stdout io.Writer) *tuiProgress {
	return &tuiProgress{
		name:   name,
		stdout: stdout,
		closed: make(chan struct{}),
	}
}

func passLabel(pass scan.PassPlan) string {
	if !pass.HasPattern {
		return pass.Direction.String()
	}
	return fmt.Sprintf("%s %02x", pass.Direction, pass.Pattern)
}

// Start switches the terminal to the fullscreen UI.
func (t *tuiProgress) Start(session *scan.Session) error {
	ui, err := retrodfrg.NewUI()
	if err != nil {
		return fmt.Errorf("cannot start terminal UI: %w", err)
	}
	ui.SetTitle(" ScanBadBlocks " + version + " ")
	ui.SetHint("q to stop")
	ui.SetLegend([]string{fmt.Sprintf("%c ok   %c error   %c pending", glyphOK, glyphError, glyphPending)})
	ui.SetGlyphStyle(glyphError, tcell.StyleDefault.Foreground(tcell.ColorRed))

	t.lock.Lock()
	t.ui = ui
	t.startTime = time.Now()
	t.plan = session.Plan()
	var labels []string
	for _, pass := range t.plan {
		labels = append(labels, passLabel(pass))
	}
	ui.SetPhases(labels)
	ui.SetSummaryLines(t.summaryLines())
	ui.LayoutAndDraw()
	t.lock.Unlock()

	go t.watch(ui)
	return nil
}

// watch terminates the process when the user or a signal interrupts
// the scan, after restoring the terminal.
func (t *tuiProgress) watch(ui *retrodfrg.UI) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	stopped := ui.Stopped()
	for {
		select {
		case <-t.closed:
			return
		case <-sig:
		case <-stopped:
			if t.finishing.Load() {
				// Only ends the final wait.
				stopped = nil
				continue
			}
		}
		t.Close()
		fmt.Fprintln(os.Stderr, "error: interrupted")
		os.Exit(130)
	}
}

func (t *tuiProgress) summaryLines() []string {
	lines := []string{"Device: " + t.name}
	for len(lines)+len(t.recent) < 1+recentLines {
		lines = append(lines, "")
	}
	return append(lines, t.recent...)
}

// Write holds back output lines while the UI is active. The most recent
// ones are displayed on screen.
func (t *tuiProgress) Write(p []byte) (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.ui == nil {
		return t.stdout.Write(p)
	}
	t.held.Write(p)
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		t.recent = append(t.recent, line)
	}
	if len(t.recent) > recentLines {
		t.recent = t.recent[len(t.recent)-recentLines:]
	}
	t.ui.SetSummaryLines(t.summaryLines())
	t.ui.LayoutAndDraw()
	return len(p), nil
}

func (t *tuiProgress) Update(p *scan.Progress) {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.ui == nil {
		return
	}
	for _, pass := range t.plan[:p.Pass.Index] {
		t.ui.SetPhaseDone(passLabel(pass))
	}
	w, _ := t.ui.Size()
	t.ui.SetProgressMap(blockMapLines(p.Blocks, p.BlockIndex, w, t.ui.MapRows()))
	t.ui.SetStatusLines(statusLines(p, time.Since(t.startTime)))
	t.ui.LayoutAndDraw()
}

// Clear is a no-op, as output lines never interfere with the UI.
func (t *tuiProgress) Clear() {}

// Finish marks all passes as done and keeps the final screen visible
// for a moment.
func (t *tuiProgress) Finish() {
	t.lock.Lock()
	ui := t.ui
	if ui == nil {
		t.lock.Unlock()
		return
	}
	for _, pass := range t.plan {
		ui.SetPhaseDone(passLabel(pass))
	}
	ui.LayoutAndDraw()
	t.lock.Unlock()

	t.finishing.Store(true)
	_ = retrodfrg.WaitWithStop(ui, 2*time.Second)
}

// Close restores the terminal and writes the held back output.
func (t *tuiProgress) Close() {
	t.closeOnce.Do(func() {
		t.lock.Lock()
		defer t.lock.Unlock()
		close(t.closed)
		if t.ui != nil {
			t.ui.Close()
			t.ui = nil
		}
		_, _ = t.held.WriteTo(t.stdout)
	})
}

// blockMapLines renders the blocks of a pass, one glyph per cell. If
// there are more blocks than cells, every cell represents a range of
// blocks and is drawn as failed if any of them failed.
func blockMapLines(blocks []scan.BlockStat, lastDone int64, w, rows int) []string {
	if len(blocks) == 0 || w <= 0 || rows <= 0 {
		return nil
	}
	numBlocks := int64(len(blocks))
	cells := min(numBlocks, int64(w*rows))
	perCell := (numBlocks + cells - 1) / cells
	cells = (numBlocks + perCell - 1) / perCell

	var lines []string
	var b strings.Builder
	for cell := int64(0); cell < cells; cell++ {
		first := cell * perCell
		last := min(first+perCell, numBlocks) - 1
		glyph := glyphPending
		if last <= lastDone {
			glyph = glyphOK
		}
		for i := first; i <= last && i <= lastDone; i++ {
			if blocks[i].Errors > 0 {
				glyph = glyphError
				break
			}
		}
		b.WriteRune(glyph)
		if (cell+1)%int64(w) == 0 {
			lines = append(lines, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		lines = append(lines, b.String())
	}
	return lines
}

func statusLines(p *scan.Progress, elapsed time.Duration) []string {
	errors := 0
	for _, b := range p.Blocks[:p.BlockIndex+1] {
		errors += b.Errors
	}
	return []string{
		fmt.Sprintf("Block: %d / %d   Errors this pass: %d", p.BlockIndex+1, p.NumBlocks, errors),
		fmt.Sprintf("Done: %s / %s   Total: %.1f%%", human(p.BytesDone), human(p.BytesPerPass), p.Fraction*100),
		fmt.Sprintf("Elapsed: %s   Read: %s/s   Write: %s/s   ETA: %s",
			elapsed.Truncate(time.Second), human(int64(p.ReadBytesPerSecond)), human(int64(p.WriteBytesPerSecond)), p.Remaining.Truncate(time.Second)),
		fmt.Sprintf("Current op: pass %d/%d (%s)", p.Pass.Index+1, p.NumPasses, passLabel(p.Pass)),
	}
}
