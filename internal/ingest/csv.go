// Package ingest validates uploaded traffic CSV files and turns them into
// domain records.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"trafficcast/internal/domain"
)

const (
	ColumnTimestamp = "timestamp"
	ColumnBytes     = "bytes_transferred"
)

// Table is the raw upload as parsed: the header, the positions of the
// required columns and the validated records.
type Table struct {
	Header         []string
	TimestampIndex int
	BytesIndex     int
	Records        []domain.TrafficRecord
}

// ReadRecords parses r and returns its records. Any invalid row aborts the
// whole read with a *domain.InputError.
func ReadRecords(r io.Reader) ([]domain.TrafficRecord, error) {
	t, err := ReadTable(r)
	if err != nil {
		return nil, err
	}
	return t.Records, nil
}

// ReadTable is ReadRecords keeping the header for display.
func ReadTable(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	first, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &domain.InputError{Reason: domain.InputMalformed, Msg: "read header", Err: err}
	}
	if strings.TrimSpace(strings.TrimPrefix(first, "\ufeff")) == "" {
		return nil, &domain.InputError{Reason: domain.InputEmpty, Msg: "file is empty"}
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(first), br))
	cr.Comma = sniffDelimiter(first)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, &domain.InputError{Reason: domain.InputMalformed, Msg: "parse header", Err: err}
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	tsIdx, bytesIdx, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	t := &Table{Header: header, TimestampIndex: tsIdx, BytesIndex: bytesIdx}
	row := 1
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			return nil, &domain.InputError{Reason: domain.InputMalformed, Row: row, Msg: "parse row", Err: err}
		}
		rec, err := parseRow(row, header, fields, tsIdx, bytesIdx)
		if err != nil {
			return nil, err
		}
		t.Records = append(t.Records, rec)
	}
	if len(t.Records) == 0 {
		return nil, &domain.InputError{Reason: domain.InputEmpty, Msg: "file has no data rows"}
	}
	return t, nil
}

func locateColumns(header []string) (int, int, error) {
	tsIdx, bytesIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case ColumnTimestamp:
			if tsIdx < 0 {
				tsIdx = i
			}
		case ColumnBytes:
			if bytesIdx < 0 {
				bytesIdx = i
			}
		}
	}
	var missing []string
	if tsIdx < 0 {
		missing = append(missing, ColumnTimestamp)
	}
	if bytesIdx < 0 {
		missing = append(missing, ColumnBytes)
	}
	if len(missing) > 0 {
		return 0, 0, &domain.InputError{
			Reason: domain.InputMissingColumn,
			Column: strings.Join(missing, ","),
			Msg:    fmt.Sprintf("missing required column(s): %s", strings.Join(missing, ", ")),
		}
	}
	return tsIdx, bytesIdx, nil
}

func parseRow(row int, header, fields []string, tsIdx, bytesIdx int) (domain.TrafficRecord, error) {
	rawTS := strings.TrimSpace(fields[tsIdx])
	ts, err := ParseTimestamp(rawTS)
	if err != nil {
		return domain.TrafficRecord{}, &domain.InputError{
			Reason: domain.InputBadTimestamp,
			Row:    row,
			Column: ColumnTimestamp,
			Msg:    fmt.Sprintf("unparseable timestamp %q", rawTS),
			Err:    err,
		}
	}

	rawBytes := strings.TrimSpace(fields[bytesIdx])
	b, err := strconv.ParseFloat(rawBytes, 64)
	if err != nil || math.IsNaN(b) || math.IsInf(b, 0) || b < 0 {
		return domain.TrafficRecord{}, &domain.InputError{
			Reason: domain.InputBadBytes,
			Row:    row,
			Column: ColumnBytes,
			Msg:    fmt.Sprintf("bytes_transferred %q is not a non-negative number", rawBytes),
		}
	}

	var extra map[string]string
	for i, v := range fields {
		if i == tsIdx || i == bytesIdx {
			continue
		}
		if extra == nil {
			extra = make(map[string]string, len(fields)-2)
		}
		// A repeated column name keeps its first value here; Fields has all.
		name := strings.TrimSpace(header[i])
		if _, seen := extra[name]; !seen {
			extra[name] = v
		}
	}

	return domain.TrafficRecord{
		Row:              row,
		RawTimestamp:     rawTS,
		Timestamp:        ts,
		BytesTransferred: b,
		Fields:           append([]string(nil), fields...),
		Extra:            extra,
	}, nil
}

// sniffDelimiter picks ';' or tab only when the header has no comma.
func sniffDelimiter(header string) rune {
	if strings.Contains(header, ",") {
		return ','
	}
	if strings.Contains(header, "\t") {
		return '\t'
	}
	if strings.Contains(header, ";") {
		return ';'
	}
	return ','
}
