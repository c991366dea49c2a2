// Command forecast analyzes a traffic CSV from the command line: it prints the
// raw, aggregated and forecast tables and writes the two charts as PNG files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"trafficcast/internal/config"
	"trafficcast/internal/domain"
	"trafficcast/internal/forecast"
	"trafficcast/internal/infra"
	"trafficcast/internal/pipeline"
	"trafficcast/internal/storage"
)

const defaultConfigFile = "trafficcast.toml"

const (
	exitInput = 1
	exitFit   = 2
)

func main() {
	var (
		configFile string
		horizon    int
		step       time.Duration
		stepMode   string
		outDir     string
		verbose    bool
	)
	flag.StringVar(&configFile, "config", defaultConfigFile, "Path to the model configuration file")
	flag.IntVar(&horizon, "horizon", 0, "Number of forecast steps (overrides config)")
	flag.DurationVar(&step, "step", 0, "Spacing of forecast timestamps, e.g. 1m (overrides config)")
	flag.StringVar(&stepMode, "step-mode", "", "fixed or median (overrides config)")
	flag.StringVar(&outDir, "out", ".", "Directory for history.png and forecast.png; empty disables charts")
	flag.BoolVar(&verbose, "v", false, "Log pipeline stages to stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] traffic.csv|-\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(exitInput)
	}

	opts, err := loadOptions(configFile)
	if err != nil {
		exitWithError(exitInput, err)
	}
	if horizon > 0 {
		opts.Horizon = horizon
	}
	if step > 0 {
		opts.Step = step
	}
	if stepMode != "" {
		opts.StepMode = forecast.StepMode(strings.ToLower(stepMode))
	}
	if err := opts.Validate(); err != nil {
		exitWithError(exitInput, err)
	}

	appEnv := "production"
	if verbose {
		appEnv = "development"
	}
	logger := infra.NewLoggerTo(os.Stderr, appEnv)
	if !verbose {
		logger = logger.Level(zerolog.WarnLevel)
	}

	deps := pipeline.Deps{Logger: logger}
	if outDir != "" {
		store, err := storage.NewFileStore(outDir)
		if err != nil {
			exitWithError(exitInput, err)
		}
		deps.Artifacts = store
	}

	name, r, closeFn, err := openInput(flag.Arg(0))
	if err != nil {
		exitWithError(exitInput, err)
	}
	defer closeFn()

	rep, err := pipeline.NewAnalyzer(opts, deps).Analyze(context.Background(), name, r)
	if err != nil {
		exitWithError(exitInput, err)
	}

	printReport(os.Stdout, rep)
	if outDir != "" {
		fmt.Fprintln(os.Stdout)
		for _, key := range []string{rep.HistoryKey, rep.ForecastKey} {
			if key != "" {
				fmt.Fprintf(os.Stdout, "wrote %s\n", filepath.Join(outDir, filepath.FromSlash(key)))
			}
		}
	}
	if rep.FitErr != nil {
		exitWithError(exitFit, rep.FitErr)
	}
}

func loadOptions(path string) (forecast.Options, error) {
	if path == defaultConfigFile {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return config.LoadModel("")
		}
	}
	return config.LoadModel(path)
}

func openInput(arg string) (string, io.Reader, func(), error) {
	if arg == "-" {
		return "stdin", os.Stdin, func() {}, nil
	}
	f, err := os.Open(arg)
	if err != nil {
		return "", nil, nil, err
	}
	return filepath.Base(arg), f, func() { _ = f.Close() }, nil
}

func printReport(w io.Writer, rep *pipeline.Report) {
	fmt.Fprintln(w, "Raw Data")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rep.Header, "\t")+"\t")
	for _, rec := range rep.Records {
		cells := rep.RawCells(rec, formatTime, formatFloat)
		fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	_ = tw.Flush()

	fmt.Fprintln(w, "\nSummarized Data by Timestamp")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "timestamp\tbytes_transferred\t")
	for _, pt := range rep.Series {
		fmt.Fprintf(tw, "%s\t%s\t\n", formatTime(pt.Timestamp), formatFloat(pt.TotalBytes))
	}
	_ = tw.Flush()

	fmt.Fprintln(w, "\nForecasted Values")
	if rep.FitErr != nil {
		fmt.Fprintf(w, "forecast unavailable: %v\n", rep.FitErr)
		return
	}
	res := rep.Forecast
	fmt.Fprintf(w, "ARIMA%s  AIC %.2f  sigma2 %.4g\n", res.Order, res.AIC, res.Sigma2)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "timestamp\tforecasted_bytes\tlower\tupper\t")
	for _, fp := range res.Points {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t\n", formatTime(fp.Timestamp), fp.PredictedBytes, fp.Lower, fp.Upper)
	}
	_ = tw.Flush()
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func exitWithError(code int, err error) {
	var inErr *domain.InputError
	if errors.As(err, &inErr) {
		fmt.Fprintf(os.Stderr, "invalid input: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(code)
}
