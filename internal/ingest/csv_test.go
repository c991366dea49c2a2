package ingest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"trafficcast/internal/domain"
)

func TestReadRecords(t *testing.T) {
	input := "timestamp,bytes_transferred,src_ip\n" +
		"2024-03-01 09:00:00,100,10.0.0.1\n" +
		"2024-03-01 09:00:00,50,10.0.0.2\n" +
		"2024-03-01T09:05:00Z,200.5,10.0.0.3\n"

	recs, err := ReadRecords(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadRecords returned error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	want := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	if !recs[0].Timestamp.Equal(want) {
		t.Fatalf("timestamp = %s, want %s", recs[0].Timestamp, want)
	}
	if recs[2].BytesTransferred != 200.5 {
		t.Fatalf("bytes = %v, want 200.5", recs[2].BytesTransferred)
	}
	if recs[1].Extra["src_ip"] != "10.0.0.2" {
		t.Fatalf("extra column not kept: %#v", recs[1].Extra)
	}
	if recs[2].Row != 4 {
		t.Fatalf("row = %d, want 4", recs[2].Row)
	}
}

func TestReadRecordsHeaderVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "bom and case", input: "\ufeffTimestamp, Bytes_Transferred\n2024-03-01 09:00:00,1\n"},
		{name: "semicolon", input: "timestamp;bytes_transferred\n2024-03-01 09:00:00;1\n"},
		{name: "tab", input: "bytes_transferred\ttimestamp\n1\t2024-03-01 09:00:00\n"},
		{name: "no trailing newline", input: "timestamp,bytes_transferred\n2024-03-01 09:00:00,1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recs, err := ReadRecords(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("ReadRecords returned error: %v", err)
			}
			if len(recs) != 1 || recs[0].BytesTransferred != 1 {
				t.Fatalf("unexpected records: %#v", recs)
			}
		})
	}
}

func TestReadRecordsErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason domain.InputReason
		row    int
	}{
		{name: "empty file", input: "", reason: domain.InputEmpty},
		{name: "blank lines", input: "\n\n", reason: domain.InputEmpty},
		{name: "header only", input: "timestamp,bytes_transferred\n", reason: domain.InputEmpty},
		{name: "missing bytes column", input: "timestamp,bytes\n2024-03-01,1\n", reason: domain.InputMissingColumn},
		{name: "missing timestamp column", input: "time,bytes_transferred\n2024-03-01,1\n", reason: domain.InputMissingColumn},
		{name: "bad timestamp", input: "timestamp,bytes_transferred\n2024-03-01 09:00:00,1\nnot a date,2\n", reason: domain.InputBadTimestamp, row: 3},
		{name: "empty timestamp", input: "timestamp,bytes_transferred\n,2\n", reason: domain.InputBadTimestamp, row: 2},
		{name: "bad bytes", input: "timestamp,bytes_transferred\n2024-03-01 09:00:00,lots\n", reason: domain.InputBadBytes, row: 2},
		{name: "negative bytes", input: "timestamp,bytes_transferred\n2024-03-01 09:00:00,-5\n", reason: domain.InputBadBytes, row: 2},
		{name: "nan bytes", input: "timestamp,bytes_transferred\n2024-03-01 09:00:00,NaN\n", reason: domain.InputBadBytes, row: 2},
		{name: "ragged row", input: "timestamp,bytes_transferred\n2024-03-01 09:00:00,1,extra\n", reason: domain.InputMalformed, row: 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadRecords(strings.NewReader(tc.input))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, domain.ErrInput) {
				t.Fatalf("expected input error, got %v", err)
			}
			var ie *domain.InputError
			if !errors.As(err, &ie) {
				t.Fatalf("expected *domain.InputError, got %T", err)
			}
			if ie.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", ie.Reason, tc.reason)
			}
			if tc.row != 0 && ie.Row != tc.row {
				t.Fatalf("row = %d, want %d", ie.Row, tc.row)
			}
		})
	}
}

func TestReadTableKeepsHeader(t *testing.T) {
	table, err := ReadTable(strings.NewReader("timestamp,bytes_transferred,proto\n2024-03-01 09:00:00,1,tcp\n"))
	if err != nil {
		t.Fatalf("ReadTable returned error: %v", err)
	}
	if strings.Join(table.Header, "|") != "timestamp|bytes_transferred|proto" {
		t.Fatalf("header mismatch: %#v", table.Header)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 9, 5, 0, 0, time.UTC)
	for _, in := range []string{
		"2024-03-01 09:05:00",
		"2024-03-01T09:05:00Z",
		"2024-03-01T11:05:00+02:00",
		"2024/03/01 09:05:00",
	} {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q) error: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseTimestamp(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestReadTableRepeatedColumnNames(t *testing.T) {
	input := "host,timestamp,bytes_transferred,host\n" +
		"edge-a,2024-03-01 09:00:00,100,core-a\n" +
		"edge-b,2024-03-01 09:05:00,200,core-b\n"

	table, err := ReadTable(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadTable returned error: %v", err)
	}
	if table.TimestampIndex != 1 || table.BytesIndex != 2 {
		t.Fatalf("indexes = %d,%d; want 1,2", table.TimestampIndex, table.BytesIndex)
	}
	rec := table.Records[1]
	if len(rec.Fields) != 4 || rec.Fields[0] != "edge-b" || rec.Fields[3] != "core-b" {
		t.Fatalf("fields = %q", rec.Fields)
	}
	if rec.Extra["host"] != "edge-b" {
		t.Fatalf("extra keeps the first repeated column, got %q", rec.Extra["host"])
	}
}
