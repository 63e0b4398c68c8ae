package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/pump-core/internal/monitor"
	"github.com/rovshanmuradov/pump-core/internal/types"
)

// Format represents the export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Options configures the export behavior
type Options struct {
	Format       Format
	StartTime    time.Time
	EndTime      time.Time
	TokenFilter  string // фильтр по mint
	ActionFilter string // фильтр по направлению (buy/sell)
	OutputDir    string
}

// Exporter выгружает историю сделок в файл.
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new trade exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger.Named("export")}
}

// Export выгружает записи по заданным опциям и возвращает путь к файлу.
func (e *Exporter) Export(records []monitor.Record, options Options) (string, error) {
	filtered := e.filter(records, options)
	if len(filtered) == 0 {
		return "", fmt.Errorf("no trades match the export criteria")
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
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

	e.logger.Info("Trades exported",
		zap.String("file", outputPath),
		zap.Int("count", len(filtered)),
		zap.String("format", string(options.Format)))

	return outputPath, nil
}

func (e *Exporter) filter(records []monitor.Record, options Options) []monitor.Record {
	var filtered []monitor.Record

	for _, r := range records {
		if !options.StartTime.IsZero() && r.Timestamp.Before(options.StartTime) {
			continue
		}
		if !options.EndTime.IsZero() && r.Timestamp.After(options.EndTime) {
			continue
		}
		if options.TokenFilter != "" && r.Token != options.TokenFilter {
			continue
		}
		if options.ActionFilter != "" && r.Action != options.ActionFilter {
			continue
		}
		filtered = append(filtered, r)
	}

	return filtered
}

func (e *Exporter) generateFilename(options Options) string {
	timestamp := time.Now().Format("20060102_150405")

	prefix := "trades_all"
	if options.ActionFilter != "" {
		prefix = fmt.Sprintf("trades_%s", options.ActionFilter)
	}
	if options.TokenFilter != "" && len(options.TokenFilter) >= 8 {
		prefix += "_" + options.TokenFilter[:8]
	}

	return fmt.Sprintf("%s_%s.%s", prefix, timestamp, options.Format)
}

func (e *Exporter) exportToCSV(records []monitor.Record, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(monitor.CSVHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for i := range records {
		if err := writer.Write(records[i].ToCSV()); err != nil {
			return fmt.Errorf("failed to write trade: %w", err)
		}
	}

	return nil
}

func (e *Exporter) exportToJSON(records []monitor.Record, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	exportData := struct {
		ExportTime time.Time        `json:"export_time"`
		TradeCount int              `json:"trade_count"`
		Trades     []monitor.Record `json:"trades"`
		Summary    Summary          `json:"summary"`
	}{
		ExportTime: time.Now(),
		TradeCount: len(records),
		Trades:     records,
		Summary:    e.calculateSummary(records),
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

func (e *Exporter) calculateSummary(records []monitor.Record) Summary {
	summary := Summary{TotalTrades: len(records)}
	if len(records) == 0 {
		return summary
	}

	summary.StartDate = records[0].Timestamp
	summary.EndDate = records[len(records)-1].Timestamp

	tokenSet := make(map[string]bool)
	for _, r := range records {
		tokenSet[r.Token] = true

		switch r.Action {
		case string(types.DirectionBuy):
			summary.BuyCount++
			summary.BuyVolume += r.VolumeLamports()
		case string(types.DirectionSell):
			summary.SellCount++
			summary.SellVolume += r.VolumeLamports()
		}
		summary.TotalFees += r.FeeCharged
	}

	summary.UniqueTokens = len(tokenSet)
	summary.TotalVolume = summary.BuyVolume + summary.SellVolume
	return summary
}

// Summary contains summary statistics for exported trades
type Summary struct {
	TotalTrades  int       `json:"total_trades"`
	BuyCount     int       `json:"buy_count"`
	SellCount    int       `json:"sell_count"`
	UniqueTokens int       `json:"unique_tokens"`
	TotalVolume  uint64    `json:"total_volume"`
	BuyVolume    uint64    `json:"buy_volume"`
	SellVolume   uint64    `json:"sell_volume"`
	TotalFees    uint64    `json:"total_fees"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
}
