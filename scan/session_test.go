package scan_test

import (
	"math"
	"testing"

	"scanbadblocks/scan"

	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	for _, tc := range []struct {
		name            string
		deviceSizeBytes int64
		blockSizeBytes  int64
		numBlocks       int64
		lastAccessSize  int
	}{
		{"ShortLastBlock", 20, 8, 3, 4},
		{"ExactMultiple", 16, 8, 2, 8},
		{"SmallerThanOneBlock", 1, 8, 1, 1},
		{"LargeBlocks", 4*1024*1024 + 1, 4 * 1024 * 1024, 2, 1},
		{"Unaligned", 1000003, 4096, 245, 579},
		{"BlockLargerThanDevice", 20, 1 << 40, 1, 20},
		{"MaximumBlockSize", 1 << 30, math.MaxInt64, 1, 1 << 30},
	} {
		t.Run(tc.name, func(t *testing.T) {
			session, err := scan.NewSession(tc.deviceSizeBytes, tc.blockSizeBytes, nil, false)
			require.NoError(t, err)
			require.Equal(t, tc.numBlocks, session.NumBlocks)
			require.Equal(t, tc.lastAccessSize, session.AccessSize(session.NumBlocks-1))
			require.Equal(t, int(min(tc.deviceSizeBytes, tc.blockSizeBytes)), session.MaxAccessSize())

			// Every byte of the device is covered exactly once.
			var total int64
			for i := int64(0); i < session.NumBlocks; i++ {
				require.Equal(t, total, session.Offset(i))
				size := session.AccessSize(i)
				require.LessOrEqual(t, int64(size), tc.blockSizeBytes)
				total += int64(size)
			}
			require.Equal(t, tc.deviceSizeBytes, total)
		})
	}
}

func TestNewSessionErrors(t *testing.T) {
	_, err := scan.NewSession(0, 8, nil, false)
	require.ErrorIs(t, err, scan.ErrEmptyDevice)

	_, err = scan.NewSession(-1, 8, nil, false)
	require.ErrorIs(t, err, scan.ErrEmptyDevice)

	_, err = scan.NewSession(20, 7, nil, false)
	require.ErrorIs(t, err, scan.ErrBlockSizeTooSmall)

	_, err = scan.NewSession(20, 8, nil, true)
	require.ErrorIs(t, err, scan.ErrNoPatterns)
}

func TestSessionPlan(t *testing.T) {
	t.Run("ReadOnly", func(t *testing.T) {
		session, err := scan.NewSession(20, 8, []byte{0x55}, false)
		require.NoError(t, err)
		require.Equal(t, 1, session.NumPasses())
		require.Equal(t, 1, session.ReadPasses())
		require.Equal(t, 0, session.WritePasses())
		require.Equal(t, []scan.PassPlan{{Index: 0, Direction: scan.Read}}, session.Plan())
	})

	t.Run("Overwrite", func(t *testing.T) {
		session, err := scan.NewSession(20, 8, []byte{0x55, 0xaa}, true)
		require.NoError(t, err)
		require.Equal(t, 4, session.NumPasses())
		require.Equal(t, 2, session.ReadPasses())
		require.Equal(t, 2, session.WritePasses())
		require.Equal(t, []scan.PassPlan{
			{Index: 0, Direction: scan.Write, Pattern: 0x55, HasPattern: true},
			{Index: 1, Direction: scan.Read, Pattern: 0x55, HasPattern: true},
			{Index: 2, Direction: scan.Write, Pattern: 0xaa, HasPattern: true},
			{Index: 3, Direction: scan.Read, Pattern: 0xaa, HasPattern: true},
		}, session.Plan())
	})
}

func TestSessionLargestPowerOfTwoFactor(t *testing.T) {
	for _, tc := range []struct {
		sizeBytes int64
		factor    int64
	}{
		{20, 4},
		{1, 1},
		{3, 1},
		{4096, 4096},
		{64*1024*1024*1000 + 512, 512},
	} {
		session, err := scan.NewSession(tc.sizeBytes, 8, nil, false)
		require.NoError(t, err)
		require.Equal(t, tc.factor, session.LargestPowerOfTwoFactor(), "size %d", tc.sizeBytes)
	}
}

func TestDirectionString(t *testing.T) {
	require.Equal(t, "read", scan.Read.String())
	require.Equal(t, "write", scan.Write.String())
}
