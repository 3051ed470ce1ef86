package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrange/elkhorn/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTabularReader(t *testing.T) {
	t.Run("stages rows keyed by header names", func(t *testing.T) {
		path := writeFile(t, "donors.csv",
			"donor_id,first_name,amount\nD0001,Maeve,250.00\nD0002,Ira,40\n")

		reader := &TabularReader{Required: []string{"donor_id"}}
		records, stats, err := reader.Read(context.Background(), path)
		require.NoError(t, err)

		assert.Equal(t, 2, stats.Read)
		assert.Equal(t, 0, stats.Skipped)
		require.Len(t, records, 2)
		assert.Equal(t, "D0001", records[0].Fields["donor_id"])
		assert.Equal(t, "Maeve", records[0].Fields["first_name"])
		assert.Equal(t, 2, records[0].Position, "positions are 1-based file rows, header is row 1")
		assert.Equal(t, 3, records[1].Position)
	})

	t.Run("rows missing required columns are skipped, not fatal", func(t *testing.T) {
		path := writeFile(t, "donations.csv",
			"donation_id,donor_id,amount\nDN-1,D0001,100\n,D0002,50\nDN-3,,75\nDN-4,D0004,20\n")

		reader := &TabularReader{Required: []string{"donation_id", "donor_id", "amount"}}
		records, stats, err := reader.Read(context.Background(), path)
		require.NoError(t, err)

		assert.Equal(t, 2, stats.Read)
		assert.Equal(t, 2, stats.Skipped)
		require.Len(t, records, 2)
		assert.Equal(t, "DN-1", records[0].Fields["donation_id"])
		assert.Equal(t, "DN-4", records[1].Fields["donation_id"])
	})

	t.Run("empty cells stage as nil", func(t *testing.T) {
		path := writeFile(t, "donors.csv", "donor_id,notes\nD0001,\n")

		reader := &TabularReader{Required: []string{"donor_id"}}
		records, _, err := reader.Read(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Nil(t, records[0].Fields["notes"])
		assert.False(t, records[0].Has("notes"))
	})

	t.Run("missing file is a source-read error", func(t *testing.T) {
		reader := &TabularReader{}
		_, _, err := reader.Read(context.Background(), filepath.Join(t.TempDir(), "gone.csv"))
		require.Error(t, err)
		assert.True(t, errors.IsSourceReadError(err))
	})

	t.Run("cancelled context stops the read", func(t *testing.T) {
		path := writeFile(t, "donors.csv", "donor_id\nD0001\nD0002\n")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		reader := &TabularReader{}
		_, _, err := reader.Read(ctx, path)
		assert.Error(t, err)
	})
}
