package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"trafficcast/internal/forecast"
	"trafficcast/internal/pipeline"
)

func TestPrintReportFitError(t *testing.T) {
	input := "timestamp,bytes_transferred,src\n" +
		"2024-03-01 09:00:00,100,a\n" +
		"2024-03-01 09:00:00,50,b\n" +
		"2024-03-01 09:05:00,200,a\n"
	rep, err := pipeline.NewAnalyzer(forecast.DefaultOptions(), pipeline.Deps{Logger: zerolog.Nop()}).
		Analyze(context.Background(), "tiny.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	var buf bytes.Buffer
	printReport(&buf, rep)
	out := buf.String()
	for _, want := range []string{
		"Raw Data",
		"Summarized Data by Timestamp",
		"2024-03-01 09:00:00  150",
		"2024-03-01 09:05:00  200",
		"forecast unavailable: fit:",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLoadOptionsDefaultFileIsOptional(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	opts, err := loadOptions(defaultConfigFile)
	if err != nil {
		t.Fatalf("loadOptions returned error: %v", err)
	}
	if opts != forecast.DefaultOptions() {
		t.Fatalf("opts = %+v, want defaults", opts)
	}
	if _, err := loadOptions("missing.toml"); err == nil {
		t.Fatalf("expected error for explicit missing config")
	}
}

func TestPrintReportRepeatedColumns(t *testing.T) {
	input := "host,timestamp,bytes_transferred,host\n" +
		"edge-a,2024-03-01 09:00:00,100,core-a\n" +
		"edge-b,2024-03-01 09:05:00,200,core-b\n"
	rep, err := pipeline.NewAnalyzer(forecast.DefaultOptions(), pipeline.Deps{Logger: zerolog.Nop()}).
		Analyze(context.Background(), "hosts.csv", strings.NewReader(input))
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	var buf bytes.Buffer
	printReport(&buf, rep)
	var row []string
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "edge-a") {
			row = strings.Fields(line)
			break
		}
	}
	want := []string{"edge-a", "2024-03-01", "09:00:00", "100", "core-a"}
	if strings.Join(row, " ") != strings.Join(want, " ") {
		t.Fatalf("raw row = %q, want %q", row, want)
	}
}
