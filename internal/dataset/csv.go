package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"tennisrag/internal/domain"
)

// LoadRecords reads the CSV at path and returns one record per data row.
// Each record's text lists "column: value" lines in header order.
func LoadRecords(path string) ([]domain.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrDatasetParse, err)
	}
	defer f.Close()
	return ReadRecords(f, path)
}

// ReadRecords parses CSV data from r. source is recorded on every record.
func ReadRecords(r io.Reader, source string) ([]domain.Record, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: missing header row", domain.ErrDatasetParse, source)
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDatasetParse, source, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var records []domain.Record
	for row := 0; ; row++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrDatasetParse, source, err)
		}
		records = append(records, domain.Record{
			ID:     RecordID(source, row),
			Source: source,
			Row:    row,
			Text:   serializeRow(header, fields),
		})
	}
	return records, nil
}

// RecordID derives a stable UUID for a row of a source file.
func RecordID(source string, row int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"#"+strconv.Itoa(row))).String()
}

func serializeRow(header, fields []string) string {
	var b strings.Builder
	for i, col := range header {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(col)
		b.WriteString(": ")
		b.WriteString(strings.TrimSpace(fields[i]))
	}
	return b.String()
}
