package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoHeader is returned when the CSV stream has no header line.
var ErrNoHeader = errors.New("csv input has no header row")

// headerAliases maps spreadsheet column names to recognized row keys.
// Spreadsheets come from Brazilian courier exports, so Portuguese headers
// are accepted alongside English ones.
var headerAliases = map[string]string{
	"id":            KeyStopID,
	"stop_id":       KeyStopID,
	"parada":        KeyStopID,
	"sequence":      KeySequence,
	"seq":           KeySequence,
	"sequencia":     KeySequence,
	"lat":           KeyLat,
	"latitude":      KeyLat,
	"lng":           KeyLng,
	"lon":           KeyLng,
	"longitude":     KeyLng,
	"address":       KeyAddress,
	"endereco":      KeyAddress,
	"destino":       KeyAddress,
	"tracking_code": KeyTrackingCode,
	"rastreio":      KeyTrackingCode,
	"postal_code":   KeyPostalCode,
	"cep":           KeyPostalCode,
}

// ReadCSV decodes a spreadsheet-exported CSV stream into loosely-typed rows.
//
// The first record is treated as the header; recognized columns are mapped
// to row keys via headerAliases and everything else is ignored. Blank cells
// produce no key at all, so downstream normalization sees them as absent
// rather than as empty strings it has to second-guess.
func ReadCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Ragged exports are common; let normalization drop short rows.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	keys := make([]string, len(header))
	for i, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(name))
		keys[i] = headerAliases[normalized]
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		row := Row{}
		for i, cell := range record {
			if i >= len(keys) || keys[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			row[keys[i]] = cell
		}
		rows = append(rows, row)
	}

	return rows, nil
}
