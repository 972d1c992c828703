// Package csvsource implements the tabular input boundary: it reads
// already-exported email CSVs and hands validated rows to the core.
package csvsource

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/llm-compliance-filter/internal/core"
)

// Column names the loader understands. Date, From, To, Subject and
// Body are required; Classification and Category only appear in
// training data.
const (
	colDate           = "Date"
	colFrom           = "From"
	colTo             = "To"
	colSubject        = "Subject"
	colBody           = "Body"
	colClassification = "Classification"
	colCategory       = "Category"
)

// Loader reads email rows from CSV input
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a new CSV loader
func NewLoader(logger *zap.Logger) *Loader {
	return &Loader{logger: logger}
}

// ReadSampleRows reads training or query rows. The required columns
// must be present in the header; Classification and Category are
// optional and default to empty.
func (l *Loader) ReadSampleRows(r io.Reader) ([]core.SampleRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colDate, colFrom, colTo, colSubject, colBody} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []core.SampleRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		row := core.SampleRow{
			Date:           field(record, colDate),
			From:           field(record, colFrom),
			To:             field(record, colTo),
			Subject:        field(record, colSubject),
			Body:           field(record, colBody),
			Classification: field(record, colClassification),
			Category:       field(record, colCategory),
		}

		if row.Body == "" {
			l.logger.Warn("Skipping row with empty body", zap.Int("line", line))
			continue
		}
		rows = append(rows, row)
	}

	l.logger.Info("Read CSV rows", zap.Int("count", len(rows)))
	return rows, nil
}

// ReadEmails reads query emails for classification
func (l *Loader) ReadEmails(r io.Reader) ([]core.Email, error) {
	rows, err := l.ReadSampleRows(r)
	if err != nil {
		return nil, err
	}

	emails := make([]core.Email, len(rows))
	for i, row := range rows {
		emails[i] = core.Email{
			Date:    row.Date,
			From:    row.From,
			To:      row.To,
			Subject: row.Subject,
			Body:    row.Body,
		}
	}
	return emails, nil
}

// WriteResults exports classification results as CSV
func (l *Loader) WriteResults(w io.Writer, results []core.ClassificationResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{
		"Classification", "Category", "Risk Score", "From", "To",
		"Subject", "Reason", "Evidence", "Confidence Score",
	}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		record := []string{
			result.Classification,
			result.Categories.String(),
			fmt.Sprintf("%.2f", result.RiskScore),
			result.Email.From,
			result.Email.To,
			result.Email.Subject,
			result.Reason,
			result.Evidence,
			fmt.Sprintf("%d", result.Confidence),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
