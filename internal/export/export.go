// internal/export/export.go
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb-bot/internal/scanner"
)

// Format represents the export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Options configures the export behavior
type Options struct {
	Format           Format
	StartTime        time.Time
	EndTime          time.Time
	PairFilter       string            // Filter by token pair label
	DirectionFilter  scanner.Direction // Filter by trade direction
	MinProfitPercent float64           // Only export at or above this profit
	OutputDir        string
}

// Exporter writes opportunity history to disk
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates an opportunity exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{
		logger: logger.Named("export"),
	}
}

// Export writes opportunities matching the options and returns the file path
func (e *Exporter) Export(opportunities []scanner.Opportunity, options Options) (string, error) {
	filtered := e.filter(opportunities, options)

	if len(filtered) == 0 {
		return "", fmt.Errorf("no opportunities match the export criteria")
	}

	// Sort by discovery time
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].DiscoveredAt.Before(filtered[j].DiscoveredAt)
	})

	filename := e.generateFilename(options)
	outputPath := filepath.Join(options.OutputDir, filename)

	if err := os.MkdirAll(options.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	var err error
	switch options.Format {
	case FormatCSV:
		err = e.exportToCSV(filtered, outputPath)
	case FormatJSON:
		err = e.exportToJSON(filtered, outputPath)
	default:
		err = fmt.Errorf("unsupported format: %s", options.Format)
	}

	if err != nil {
		return "", err
	}

	e.logger.Info("Opportunities exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

// filter applies the option filters to the opportunity list
func (e *Exporter) filter(opportunities []scanner.Opportunity, options Options) []scanner.Opportunity {
	var filtered []scanner.Opportunity

	for _, opp := range opportunities {
		if !options.StartTime.IsZero() && opp.DiscoveredAt.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && opp.DiscoveredAt.After(options.EndTime) {
			continue
		}
		if options.PairFilter != "" && opp.Pair != options.PairFilter {
			continue
		}
		if options.DirectionFilter != "" && opp.Direction != options.DirectionFilter {
			continue
		}
		if opp.ProfitPercent < options.MinProfitPercent {
			continue
		}

		filtered = append(filtered, opp)
	}

	return filtered
}

// generateFilename creates a filename based on export options
func (e *Exporter) generateFilename(options Options) string {
	timestamp := time.Now().Format("20060102_150405")

	prefix := "opportunities_all"
	switch options.DirectionFilter {
	case scanner.DirectionJupiterToMeteora:
		prefix = "opportunities_jup_to_met"
	case scanner.DirectionMeteoraToJupiter:
		prefix = "opportunities_met_to_jup"
	}

	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

func csvHeaders() []string {
	return []string{
		"timestamp", "pair", "direction", "capital",
		"net_profit", "net_profit_raw", "profit_percentage",
		"buy_platform", "sell_platform", "jupiter_link", "meteora_link",
	}
}

func toCSVRow(opp scanner.Opportunity) []string {
	return []string{
		opp.DiscoveredAt.Format(time.RFC3339),
		opp.Pair,
		string(opp.Direction),
		opp.Capital,
		opp.NetProfitHuman(),
		strconv.FormatInt(opp.NetProfitRaw, 10),
		strconv.FormatFloat(opp.ProfitPercent, 'f', 4, 64),
		opp.BuyVenue,
		opp.SellVenue,
		opp.JupiterLink,
		opp.MeteoraLink,
	}
}

// exportToCSV writes opportunities in CSV format
func (e *Exporter) exportToCSV(opportunities []scanner.Opportunity, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(csvHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, opp := range opportunities {
		if err := writer.Write(toCSVRow(opp)); err != nil {
			return fmt.Errorf("failed to write opportunity: %w", err)
		}
	}

	return nil
}

// Summary holds aggregate statistics included in JSON exports
type Summary struct {
	TotalOpportunities int       `json:"total_opportunities"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	BestProfitPercent  float64   `json:"best_profit_percent"`
	JupiterToMeteora   int       `json:"jupiter_to_meteora"`
	MeteoraToJupiter   int       `json:"meteora_to_jupiter"`
	UniquePairs        int       `json:"unique_pairs"`
}

// exportToJSON writes opportunities with metadata in JSON format
func (e *Exporter) exportToJSON(opportunities []scanner.Opportunity, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	exportData := struct {
		ExportTime    time.Time             `json:"export_time"`
		Count         int                   `json:"count"`
		Opportunities []scanner.Opportunity `json:"opportunities"`
		Summary       Summary               `json:"summary"`
	}{
		ExportTime:    time.Now(),
		Count:         len(opportunities),
		Opportunities: opportunities,
		Summary:       e.calculateSummary(opportunities),
	}

	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

// calculateSummary calculates aggregate statistics for the export
func (e *Exporter) calculateSummary(opportunities []scanner.Opportunity) Summary {
	summary := Summary{
		TotalOpportunities: len(opportunities),
	}

	if len(opportunities) == 0 {
		return summary
	}

	summary.StartDate = opportunities[0].DiscoveredAt
	summary.EndDate = opportunities[len(opportunities)-1].DiscoveredAt

	pairSet := make(map[string]bool)
	for _, opp := range opportunities {
		pairSet[opp.Pair] = true

		if opp.ProfitPercent > summary.BestProfitPercent {
			summary.BestProfitPercent = opp.ProfitPercent
		}

		switch opp.Direction {
		case scanner.DirectionJupiterToMeteora:
			summary.JupiterToMeteora++
		case scanner.DirectionMeteoraToJupiter:
			summary.MeteoraToJupiter++
		}
	}

	summary.UniquePairs = len(pairSet)
	return summary
}
