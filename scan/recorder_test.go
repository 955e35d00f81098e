package scan_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"scanbadblocks/scan"

	"github.com/stretchr/testify/require"
)

func TestWriteBlockRows(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, scan.WriteBlockRows(&out, []scan.BlockStat{
		{ElapsedSeconds: 0.001, Bytes: 8},
		{ElapsedSeconds: 0, Errors: 1},
		{ElapsedSeconds: 1.5, Bytes: 8, Errors: 2},
	}))
	require.Equal(t, "0,1.000000e-03,0\n1,0.000000e+00,1\n2,1.500000e+00,2\n", out.String())
}

func TestCSVFileRecorder(t *testing.T) {
	session, err := scan.NewSession(20, 8, []byte{0x00}, true)
	require.NoError(t, err)
	plan := session.Plan()
	recorder := scan.CSVFileRecorder{Prefix: filepath.Join(t.TempDir(), "scan")}

	t.Run("FileName", func(t *testing.T) {
		require.Equal(t, recorder.Prefix+"_write0_20.txt", recorder.FileName(plan[0], session))
		require.Equal(t, recorder.Prefix+"_read1_20.txt", recorder.FileName(plan[1], session))
	})

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, recorder.RecordPass(plan[1], session, []scan.BlockStat{
			{ElapsedSeconds: 0.25, Bytes: 8},
			{ElapsedSeconds: 0.5, Bytes: 8},
			{Errors: 1},
		}))
		data, err := os.ReadFile(recorder.FileName(plan[1], session))
		require.NoError(t, err)
		require.Equal(t, "0,2.500000e-01,0\n1,5.000000e-01,0\n2,0.000000e+00,1\n", string(data))
	})

	t.Run("OpenFailure", func(t *testing.T) {
		broken := scan.CSVFileRecorder{Prefix: filepath.Join(t.TempDir(), "nonexistent", "scan")}
		err := broken.RecordPass(plan[0], session, nil)
		require.ErrorIs(t, err, os.ErrNotExist)
		require.ErrorContains(t, err, "error while opening file '"+broken.FileName(plan[0], session)+"' for writing")
	})
}
