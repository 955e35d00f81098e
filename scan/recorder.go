package scan

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// PassRecorder persists the raw per-block measurements of a pass. It is
// invoked once at the end of every pass, with blocks in block order.
type PassRecorder interface {
	RecordPass(pass PassPlan, session *Session, blocks []BlockStat) error
}

// CSVFileRecorder writes one file per pass, named
// PREFIX_{read|write}{passIndex}_{deviceSizeBytes}.txt, containing a
// blockIndex,elapsedSeconds,errorCount row per block.
type CSVFileRecorder struct {
	Prefix string
}

// FileName returns the name of the file holding the rows of a pass.
func (r CSVFileRecorder) FileName(pass PassPlan, session *Session) string {
	return fmt.Sprintf("%s_%s%d_%d.txt", r.Prefix, pass.Direction, pass.Index, session.DeviceSizeBytes)
}

// RecordPass writes the file of a pass, replacing any existing file.
func (r CSVFileRecorder) RecordPass(pass PassPlan, session *Session, blocks []BlockStat) error {
	name := r.FileName(pass, session)
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("error while opening file '%s' for writing: %w", name, err)
	}
	if err := WriteBlockRows(f, blocks); err != nil {
		f.Close()
		return fmt.Errorf("error while writing file '%s': %w", name, err)
	}
	return f.Close()
}

// WriteBlockRows writes a blockIndex,elapsedSeconds,errorCount row per
// block. Elapsed time is written in scientific notation.
func WriteBlockRows(w io.Writer, blocks []BlockStat) error {
	cw := csv.NewWriter(w)
	for i, b := range blocks {
		if err := cw.Write([]string{
			strconv.Itoa(i),
			strconv.FormatFloat(b.ElapsedSeconds, 'e', 6, 64),
			strconv.Itoa(b.Errors),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
