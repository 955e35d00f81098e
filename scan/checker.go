package scan

import (
	"bytes"
	"fmt"
	"io"

	"scanbadblocks/blockdevice"
)

// Config contains the parameters of a BlockChecker.
type Config struct {
	// Name of the target, used in messages only.
	Name   string
	Target blockdevice.Target

	BlockSizeBytes int64
	// Patterns drive one write pass and one read pass each. They are
	// only used if Overwrite is set.
	Patterns  []byte
	Overwrite bool

	// Output receives human readable status lines. Defaults to
	// io.Discard.
	Output io.Writer
	// Progress is optional.
	Progress ProgressSink
	// Recorder is optional. Errors returned by it abort the session.
	Recorder PassRecorder
	// Clock defaults to SystemClock.
	Clock Clock
	// Verbose enables per-block error details at level 1 and handle
	// lifecycle messages at level 2.
	Verbose int
}

// BlockChecker scans every block of a target, either by reading it or
// by overwriting it with an address dependent pattern and reading it
// back. Errors affecting individual blocks are counted and never abort
// the scan, as the purpose of the scan is to enumerate all bad regions.
type BlockChecker struct {
	name     string
	target   blockdevice.Target
	session  *Session
	out      io.Writer
	sink     ProgressSink
	recorder PassRecorder
	clock    Clock
	verbose  int

	totals   RunningTotals
	progress *ProgressReporter
	passes   []PassSummary
}

// passState holds everything that is reset at the start of a pass.
type passState struct {
	pass    PassPlan
	blocks  []BlockStat
	metrics passMetrics
}

// NewBlockChecker determines the size of the target and sets up the
// session. The size and block layout are printed to the output.
func NewBlockChecker(config Config) (*BlockChecker, error) {
	sizeBytes, err := config.Target.SizeBytes()
	if err != nil {
		return nil, fmt.Errorf("cannot determine size of '%s': %w", config.Name, err)
	}
	session, err := NewSession(sizeBytes, config.BlockSizeBytes, config.Patterns, config.Overwrite)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.Name, err)
	}

	c := &BlockChecker{
		name:     config.Name,
		target:   config.Target,
		session:  session,
		out:      config.Output,
		sink:     config.Progress,
		recorder: config.Recorder,
		clock:    config.Clock,
		verbose:  config.Verbose,
	}
	if c.out == nil {
		c.out = io.Discard
	}
	if c.sink == nil {
		c.sink = discardProgress{}
	}
	if c.clock == nil {
		c.clock = SystemClock
	}
	c.progress = NewProgressReporter(session, &c.totals, c.clock, c.sink)

	fmt.Fprintf(c.out, "%s: Size=%.1f GB (%s, numBlocks=%d, blockSize=%s, size is a multiple of %s)\n",
		c.name, float64(sizeBytes)/(1024*1024*1024), preciseSize(sizeBytes), session.NumBlocks,
		preciseSize(session.BlockSizeBytes), preciseSize(session.LargestPowerOfTwoFactor()))
	return c, nil
}

// Session returns the session configuration of the checker.
func (c *BlockChecker) Session() *Session {
	return c.session
}

// Run executes all passes of the session. Errors are only returned for
// conditions that prevent the session from continuing, such as failing
// to open the target or the pass recorder.
func (c *BlockChecker) Run() (*Result, error) {
	for _, pass := range c.session.Plan() {
		summary, err := c.runPass(pass)
		if err != nil {
			return nil, err
		}
		c.passes = append(c.passes, summary)
	}
	return &Result{
		Totals: c.totals,
		Passes: c.passes,
	}, nil
}

func (c *BlockChecker) runPass(pass PassPlan) (PassSummary, error) {
	state := &passState{
		pass:    pass,
		blocks:  make([]BlockStat, c.session.NumBlocks),
		metrics: newPassMetrics(pass.Direction),
	}
	c.progress.StartPass(pass, state.blocks)

	var err error
	if pass.Direction == Write {
		err = c.writeBlocks(state)
	} else {
		err = c.readBlocks(state)
	}
	c.sink.Clear()
	if err != nil {
		return PassSummary{}, err
	}

	if c.recorder != nil {
		if err := c.recorder.RecordPass(pass, c.session, state.blocks); err != nil {
			return PassSummary{}, err
		}
	}
	summary := SummarizePass(pass, c.session.NumPasses(), state.blocks)
	summary.Print(c.out)
	return summary, nil
}

func (c *BlockChecker) writeBlocks(state *passState) error {
	w, err := c.target.OpenWriter()
	if err != nil {
		return err
	}
	c.logf(2, "%s: opened for writing (pass %d/%d)\n", c.name, state.pass.Index+1, c.session.NumPasses())

	buf := bytes.Repeat([]byte{state.pass.Pattern}, c.session.MaxAccessSize())
	for i := int64(0); i < c.session.NumBlocks; i++ {
		FillBlock(buf, state.pass.Pattern, uint64(i))
		size := c.session.AccessSize(i)

		start := c.clock.Now()
		n, err := w.WriteAt(buf[:size], c.session.Offset(i))
		elapsed := c.clock.Now().Sub(start).Seconds()
		if err == nil && n < size {
			err = io.ErrShortWrite
		}
		if err != nil {
			c.recordIOError(state, i, err)
		} else {
			c.recordSuccess(state, i, elapsed, size)
		}
		c.progress.Report(i)
	}

	// Make sure the following read pass observes the device rather
	// than dirty pages.
	if err := w.Sync(); err != nil {
		c.sink.Clear()
		fmt.Fprintf(c.out, "WARNING: flushing '%s' failed: %v\n", c.name, err)
	}
	if err := w.Close(); err != nil {
		c.sink.Clear()
		fmt.Fprintf(c.out, "WARNING: closing '%s' failed: %v\n", c.name, err)
	}
	c.logf(2, "%s: closed\n", c.name)
	return nil
}

func (c *BlockChecker) readBlocks(state *passState) error {
	r, err := c.target.OpenReader()
	if err != nil {
		return err
	}
	defer r.Close()
	c.logf(2, "%s: opened for reading (pass %d/%d)\n", c.name, state.pass.Index+1, c.session.NumPasses())
	if err := r.DropCache(); err != nil {
		c.logf(1, "%s: cannot drop cached pages: %v\n", c.name, err)
	}

	pattern := state.pass.Pattern
	buf := make([]byte, c.session.MaxAccessSize())
	expected := bytes.Repeat([]byte{pattern}, c.session.MaxAccessSize())
	for i := int64(0); i < c.session.NumBlocks; i++ {
		size := c.session.AccessSize(i)

		start := c.clock.Now()
		n, err := r.ReadAt(buf[:size], c.session.Offset(i))
		elapsed := c.clock.Now().Sub(start).Seconds()
		if n == size {
			// io.ReaderAt may return io.EOF along with a full
			// read of the last block.
			err = nil
		} else if err == nil {
			err = io.ErrUnexpectedEOF
		}

		if err != nil {
			c.recordIOError(state, i, err)
		} else {
			if state.pass.HasPattern {
				FillBlock(expected, pattern, uint64(i))
				if offset := firstMismatch(buf[:size], expected[:size]); offset >= 0 {
					c.sink.Clear()
					fmt.Fprintf(c.out, "Data error: Expected 0x%02x and got 0x%02x (block %d).\n", expected[offset], buf[offset], i)
					c.recordDataError(state, i)
				}
			}
			c.recordSuccess(state, i, elapsed, size)
		}
		c.progress.Report(i)
	}
	c.logf(2, "%s: closed\n", c.name)
	return nil
}

func (c *BlockChecker) recordSuccess(state *passState, blockIndex int64, elapsedSeconds float64, size int) {
	block := &state.blocks[blockIndex]
	block.ElapsedSeconds += elapsedSeconds
	block.Bytes += int64(size)

	totals := c.totals.For(state.pass.Direction)
	totals.ElapsedSeconds += elapsedSeconds
	totals.Bytes += int64(size)

	state.metrics.operations.Inc()
	state.metrics.bytes.Add(float64(size))
	state.metrics.duration.Observe(elapsedSeconds)
}

func (c *BlockChecker) recordIOError(state *passState, blockIndex int64, err error) {
	state.blocks[blockIndex].Errors++
	c.totals.For(state.pass.Direction).Errors++
	state.metrics.operations.Inc()
	state.metrics.ioErrors.Inc()
	if c.verbose >= 1 {
		c.sink.Clear()
		fmt.Fprintf(c.out, "block %d: %s failed: %v\n", blockIndex, state.pass.Direction, err)
	}
}

func (c *BlockChecker) recordDataError(state *passState, blockIndex int64) {
	state.blocks[blockIndex].Errors++
	c.totals.For(state.pass.Direction).Errors++
	state.metrics.dataErrors.Inc()
}

func (c *BlockChecker) logf(level int, format string, args ...any) {
	if c.verbose >= level {
		c.sink.Clear()
		fmt.Fprintf(c.out, format, args...)
	}
}
