package scan

import (
	"time"
)

// progressInterval is the minimum amount of time between two progress
// updates.
const progressInterval = 500 * time.Millisecond

// Progress is a snapshot of the state of a running session, handed to
// a ProgressSink.
type Progress struct {
	Pass      PassPlan
	NumPasses int

	// BlockIndex is the index of the block that was just completed.
	BlockIndex int64
	NumBlocks  int64

	BytesDone    int64
	BytesPerPass int64
	// Fraction of all planned bytes of the session that is done, in
	// the range [0, 1].
	Fraction  float64
	Remaining time.Duration

	ReadBytesPerSecond  float64
	WriteBytesPerSecond float64

	// Blocks contains the measurements of the current pass so far.
	// Sinks may inspect it during Update(), but must not retain or
	// modify it.
	Blocks []BlockStat
}

// ProgressSink displays progress. Update() is called at most every
// 500 ms; Clear() is called before regular output lines are written
// during or after a pass, so that transient progress output can be
// removed first.
type ProgressSink interface {
	Update(p *Progress)
	Clear()
}

type discardProgress struct{}

func (discardProgress) Update(*Progress) {}
func (discardProgress) Clear()           {}

// ProgressReporter computes throttled progress and ETA information
// after every block and passes it on to a ProgressSink.
type ProgressReporter struct {
	session *Session
	totals  *RunningTotals
	clock   Clock
	sink    ProgressSink

	pass       PassPlan
	blocks     []BlockStat
	lastReport time.Time
}

// NewProgressReporter creates a ProgressReporter. totals is read, never
// modified.
func NewProgressReporter(session *Session, totals *RunningTotals, clock Clock, sink ProgressSink) *ProgressReporter {
	if sink == nil {
		sink = discardProgress{}
	}
	return &ProgressReporter{
		session: session,
		totals:  totals,
		clock:   clock,
		sink:    sink,
	}
}

// StartPass resets the throttling marker at the start of a pass.
func (r *ProgressReporter) StartPass(pass PassPlan, blocks []BlockStat) {
	r.pass = pass
	r.blocks = blocks
	r.lastReport = r.clock.Now()
}

// Report is called after every block. It returns whether the sink was
// updated.
func (r *ProgressReporter) Report(blockIndex int64) bool {
	now := r.clock.Now()
	if now.Sub(r.lastReport) < progressInterval {
		return false
	}
	r.lastReport = now
	r.sink.Update(r.snapshot(blockIndex))
	return true
}

func (r *ProgressReporter) snapshot(blockIndex int64) *Progress {
	s := r.session
	bytesDone := min((blockIndex+1)*s.BlockSizeBytes, s.DeviceSizeBytes)
	plannedBytes := float64(s.NumPasses()) * float64(s.BytesPerPass())
	return &Progress{
		Pass:                r.pass,
		NumPasses:           s.NumPasses(),
		BlockIndex:          blockIndex,
		NumBlocks:           s.NumBlocks,
		BytesDone:           bytesDone,
		BytesPerPass:        s.BytesPerPass(),
		Fraction:            (float64(r.pass.Index)*float64(s.BytesPerPass()) + float64(bytesDone)) / plannedBytes,
		Remaining:           EstimateRemaining(s, r.totals, r.pass),
		ReadBytesPerSecond:  r.totals.Read.BytesPerSecond(),
		WriteBytesPerSecond: r.totals.Write.BytesPerSecond(),
		Blocks:              r.blocks,
	}
}

// EstimateRemaining estimates the time needed for the rest of the
// session from the aggregate read and write throughput observed so far.
// A direction whose throughput is not known yet contributes nothing,
// except for the case handled by approximateReadWithWrite.
func EstimateRemaining(s *Session, totals *RunningTotals, pass PassPlan) time.Duration {
	plannedRead := float64(s.ReadPasses()) * float64(s.BytesPerPass())
	plannedWrite := float64(s.WritePasses()) * float64(s.BytesPerPass())
	remainingRead := max(0, plannedRead-float64(totals.Read.Bytes))
	remainingWrite := max(0, plannedWrite-float64(totals.Write.Bytes))
	readRate := totals.Read.BytesPerSecond()
	writeRate := totals.Write.BytesPerSecond()

	var seconds float64
	switch {
	case readRate > 0:
		seconds += remainingRead / readRate
	case approximateReadWithWrite(pass, writeRate):
		seconds += remainingRead / writeRate
	}
	if writeRate > 0 {
		seconds += remainingWrite / writeRate
	}
	return time.Duration(seconds * float64(time.Second))
}

// approximateReadWithWrite reports whether the read throughput, which
// is unknown until the first read pass starts, should be approximated
// by the write throughput. This is only done during the first write
// pass, as no better estimate exists at that point.
func approximateReadWithWrite(pass PassPlan, writeRate float64) bool {
	return pass.Index == 0 && pass.Direction == Write && writeRate > 0
}
