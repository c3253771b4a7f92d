package deployment

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// CSVSource reads deployment records from a CSV extract.
type CSVSource struct {
	path string
}

// NewCSVSource creates a CSV-backed deployment source.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Load reads the extract, keeping only deployments inside [start, end]
// (inclusive). Rows that fail to parse are counted and skipped, matching
// the tolerant behavior of the list importers; a fully unreadable file is
// an error.
func (s *CSVSource) Load(start, end time.Time) ([]*Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open deployments file: %w", err)
	}
	defer f.Close()

	records, skipped, err := ReadCSV(f, start, end)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		log.Printf("[DeploymentStore] Skipped %d malformed rows in %s", skipped, s.path)
	}
	return records, nil
}

// ReadCSV parses a deployment CSV stream. Returns the filtered records and
// the number of rows skipped due to parse errors.
func ReadCSV(r io.Reader, start, end time.Time) ([]*Record, int, error) {
	reader := csv.NewReader(stripBOM(r))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	mapping := MapColumns(header)
	if mapping["CLIENT_ID"] < 0 || mapping["DEPLOYMENT_DATE"] < 0 {
		return nil, 0, fmt.Errorf("no CLIENT_ID/DEPLOYMENT_DATE column detected in header: %v", header)
	}

	var records []*Record
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		rec, err := ParseRow(row, mapping)
		if err != nil {
			skipped++
			continue
		}
		if rec.DeploymentDate.IsZero() {
			skipped++
			continue
		}
		if !start.IsZero() && rec.DeploymentDate.Before(start) {
			continue
		}
		if !end.IsZero() && rec.DeploymentDate.After(end) {
			continue
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

// stripBOM removes a UTF-8 byte order mark if present.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	b, err := br.Peek(3)
	if err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		br.Discard(3)
	}
	return br
}
