package repository

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"RentWise/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVDatasetSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	body := "\ufeffcity,price,beds,sq_feet\n" +
		"Vancouver,2000,2 Beds,\"1,100\"\n" +
		"Burnaby,1700,Studio\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	ds, err := NewCSVDatasetSource(path).ReadRaw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "price", "beds", "sq_feet"}, ds.Columns)
	require.Len(t, ds.Records, 2)
	assert.Equal(t, "1,100", ds.Records[0]["sq_feet"])
	_, ok := ds.Records[1]["sq_feet"]
	assert.False(t, ok, "short rows leave trailing columns absent")
}

func TestCSVDatasetSourceEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	_, err := NewCSVDatasetSource(path).ReadRaw(context.Background())
	assert.True(t, errors.Is(err, models.ErrEmptyDataset))

	_, err = NewCSVDatasetSource(filepath.Join(t.TempDir(), "absent.csv")).ReadRaw(context.Background())
	assert.Error(t, err)
}

func TestCSVDatasetSinkIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	table := models.CanonicalTable{
		Columns: []string{"price", "sq_feet", "type_Condo Unit"},
		Rows:    [][]float64{{2000, 750.5, 0}, {1500, 0.1, 1}},
	}

	first := filepath.Join(dir, "a", "processed.csv")
	second := filepath.Join(dir, "b", "processed.csv")
	require.NoError(t, NewCSVDatasetSink(first).WriteCanonical(context.Background(), table))
	require.NoError(t, NewCSVDatasetSink(second).WriteCanonical(context.Background(), table))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "price,sq_feet,type_Condo Unit\n2000,750.5,0\n1500,0.1,1\n", string(a))
}

func TestCSVDatasetSinkWritesGapsAsEmptyCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.csv")
	table := models.CanonicalTable{
		Columns: []string{"price", "latitude"},
		Rows:    [][]float64{{2000, 49.25}, {2100, math.NaN()}},
	}
	require.NoError(t, NewCSVDatasetSink(path).WriteCanonical(context.Background(), table))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "price,latitude\n2000,49.25\n2100,\n", string(b))
}

func TestCSVDatasetSinkRejectsRaggedRows(t *testing.T) {
	table := models.CanonicalTable{Columns: []string{"price", "beds"}, Rows: [][]float64{{1}}}
	err := NewCSVDatasetSink(filepath.Join(t.TempDir(), "out.csv")).WriteCanonical(context.Background(), table)
	assert.Error(t, err)
}
