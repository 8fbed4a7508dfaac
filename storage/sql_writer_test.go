package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-crawler/models"
	"venue-crawler/utils"
)

func openSQLite(t *testing.T) *SQLWriter {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "sites.db")
	retry := &utils.RetryConfig{MaxAttempts: 1, BaseDelay: time.Millisecond}

	w, err := NewSQLWriter(context.Background(), "sqlite", dsn, utils.NewNopLogger(), retry)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestSQLWriterRoundTrip(t *testing.T) {
	w := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, sampleSites()))

	got, err := w.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSites(), got)
}

func TestSQLWriterUpsertsByName(t *testing.T) {
	w := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, w.Write(ctx, sampleSites()))

	updated := sampleSites()[:1]
	updated[0].Reviews = 300
	require.NoError(t, w.Write(ctx, updated))

	got, err := w.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 300, got[0].Reviews)
}

func TestSQLWriterBatches(t *testing.T) {
	w := openSQLite(t)
	ctx := context.Background()

	sites := make([]models.Site, 0, 120)
	for i := 0; i < 120; i++ {
		sites = append(sites, models.Site{Name: time.Duration(i).String(), Description: "d"})
	}
	require.NoError(t, w.Write(ctx, sites))

	got, err := w.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 120)
}

func TestSQLWriterEmptyWriteIsNoop(t *testing.T) {
	w := openSQLite(t)
	assert.NoError(t, w.Write(context.Background(), nil))
}

func TestNewSQLWriterUnknownDriver(t *testing.T) {
	_, err := NewSQLWriter(context.Background(), "oracle", "", utils.NewNopLogger(), &utils.RetryConfig{})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
