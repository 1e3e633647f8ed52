package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-arb-bot/internal/scanner"
)

func sampleOpportunities() []scanner.Opportunity {
	base := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return []scanner.Opportunity{
		{
			Pair:          "BONK/SOL",
			Direction:     scanner.DirectionJupiterToMeteora,
			Capital:       "0.1 SOL",
			NetProfitRaw:  5_000_000,
			ProfitPercent: 5.0,
			BuyVenue:      "Jupiter",
			SellVenue:     "Meteora",
			DiscoveredAt:  base.Add(2 * time.Minute),
			BaseSymbol:    "SOL",
			BaseDecimals:  9,
		},
		{
			Pair:          "WIF/SOL",
			Direction:     scanner.DirectionMeteoraToJupiter,
			Capital:       "0.1 SOL",
			NetProfitRaw:  1_000_000,
			ProfitPercent: 1.0,
			BuyVenue:      "Meteora",
			SellVenue:     "Jupiter",
			DiscoveredAt:  base,
			BaseSymbol:    "SOL",
			BaseDecimals:  9,
		},
	}
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(zaptest.NewLogger(t))

	path, err := exporter.Export(sampleOpportunities(), Options{
		Format:    FormatCSV,
		OutputDir: dir,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "opportunities_all_"))
	assert.True(t, strings.HasSuffix(path, ".csv"))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 records

	assert.Equal(t, "timestamp", rows[0][0])
	assert.Equal(t, "pair", rows[0][1])
	// Rows are sorted by discovery time, oldest first.
	assert.Equal(t, "WIF/SOL", rows[1][1])
	assert.Equal(t, "BONK/SOL", rows[2][1])
	assert.Equal(t, "0.005000 SOL", rows[2][4])
	assert.Equal(t, "5000000", rows[2][5])
}

func TestExportJSONIncludesSummary(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(zaptest.NewLogger(t))

	path, err := exporter.Export(sampleOpportunities(), Options{
		Format:    FormatJSON,
		OutputDir: dir,
	})
	require.NoError(t, err)

	payload, err := os.ReadFile(path)
	require.NoError(t, err)

	var exported struct {
		Count         int                   `json:"count"`
		Opportunities []scanner.Opportunity `json:"opportunities"`
		Summary       Summary               `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(payload, &exported))

	assert.Equal(t, 2, exported.Count)
	assert.Len(t, exported.Opportunities, 2)
	assert.Equal(t, 2, exported.Summary.TotalOpportunities)
	assert.Equal(t, 1, exported.Summary.JupiterToMeteora)
	assert.Equal(t, 1, exported.Summary.MeteoraToJupiter)
	assert.Equal(t, 2, exported.Summary.UniquePairs)
	assert.InDelta(t, 5.0, exported.Summary.BestProfitPercent, 1e-9)
}

func TestExportFilters(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(zaptest.NewLogger(t))

	path, err := exporter.Export(sampleOpportunities(), Options{
		Format:          FormatCSV,
		DirectionFilter: scanner.DirectionMeteoraToJupiter,
		OutputDir:       dir,
	})
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "met_to_jup")

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "WIF/SOL", rows[1][1])

	// Profit threshold excludes everything below it.
	_, err = exporter.Export(sampleOpportunities(), Options{
		Format:           FormatCSV,
		MinProfitPercent: 10.0,
		OutputDir:        dir,
	})
	assert.Error(t, err)
}

func TestExportUnsupportedFormat(t *testing.T) {
	exporter := NewExporter(zaptest.NewLogger(t))

	_, err := exporter.Export(sampleOpportunities(), Options{
		Format:    Format("xml"),
		OutputDir: t.TempDir(),
	})
	assert.ErrorContains(t, err, "unsupported format")
}

func TestExportNothingToExport(t *testing.T) {
	exporter := NewExporter(zaptest.NewLogger(t))

	_, err := exporter.Export(nil, Options{Format: FormatCSV, OutputDir: t.TempDir()})
	assert.ErrorContains(t, err, "no opportunities")
}
