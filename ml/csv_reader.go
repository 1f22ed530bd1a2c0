package ml

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// CSVOptions controls how ReadCSV splits the input. Quoting always uses
// double quotes.
type CSVOptions struct {
	Delimiter rune
	Header    bool
}

// WineCSVOptions matches the published wine quality files: semicolon
// separated with a header row.
func WineCSVOptions() CSVOptions {
	return CSVOptions{Delimiter: ';', Header: true}
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path string, schema Schema, opts CSVOptions) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv failed: %w", err)
	}
	defer file.Close()
	return ReadCSV(file, schema, opts)
}

// ReadCSV parses r strictly against schema. Every record, header included,
// must have exactly schema.Len() fields and every data value must parse as a
// finite float64. Header names are not compared; columns bind by position.
func ReadCSV(r io.Reader, schema Schema, opts CSVOptions) (*Frame, error) {
	if schema.Len() == 0 {
		return nil, fmt.Errorf("%w: empty schema", ErrSchemaMismatch)
	}

	reader := csv.NewReader(bufio.NewReader(r))
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = schema.Len()
	reader.ReuseRecord = true

	columns := make([][]float64, schema.Len())
	line := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, classifyCSVError(err)
		}
		line++
		if line == 1 && opts.Header {
			continue
		}

		for i, raw := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
				err = strconv.ErrSyntax
			}
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %q", ErrInvalidValue, line, schema.Fields[i].Name, raw)
			}
			columns[i] = append(columns[i], v)
		}
	}

	dataRows := line
	if opts.Header && dataRows > 0 {
		dataRows--
	}
	if dataRows == 0 {
		return nil, ErrEmptyDataset
	}

	return NewFrame(schema.Names(), columns)
}

func classifyCSVError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		if errors.Is(parseErr.Err, csv.ErrFieldCount) {
			return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
		}
		return fmt.Errorf("%w: %v", ErrMalformedCSV, err)
	}
	return fmt.Errorf("read csv failed: %w", err)
}
