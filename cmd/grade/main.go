package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Spectrumgrid/grade-pilot/internal/config"
	"github.com/Spectrumgrid/grade-pilot/internal/grading"
	"github.com/Spectrumgrid/grade-pilot/internal/logger"
	"github.com/Spectrumgrid/grade-pilot/internal/report"
	"github.com/Spectrumgrid/grade-pilot/internal/spreadsheet"
)

// grade grades a local answer-sheet workbook without the HTTP server and
// writes the graded workbook and, optionally, the PDF report next to it.
func main() {
	questions := flag.Int("questions", 10, "number of questions (P1..Pn)")
	options := flag.Int("options", 5, "number of options per question")
	out := flag.String("out", "", "graded workbook path (default <input>_graded.xlsx)")
	pdf := flag.String("pdf", "", "optional PDF report path")
	asJSON := flag.Bool("json", false, "print the metrics report as JSON")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: grade [flags] answers.xlsx\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	cfg := config.Load()
	log, closeLog, err := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	f, err := os.Open(input)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open answer sheet")
	}
	defer f.Close()

	sheet, err := spreadsheet.Read(f)
	if err != nil {
		log.Fatal().Err(err).Str("file", input).Msg("Failed to read spreadsheet")
	}

	gcfg := grading.Config{
		Alphabet: grading.Alphabet(cfg.Grading.OptionAlphabet),
		PassMark: cfg.Grading.PassMark,
	}
	shape := grading.Shape{Questions: *questions, Options: *options}
	graded, err := grading.GradeSheet(sheet, shape, gcfg)
	if err != nil {
		var ve *grading.ValidationError
		if errors.As(err, &ve) {
			fmt.Fprintf(os.Stderr, "%s: %s\n", ve.Rule, ve.Message)
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Grading failed")
	}

	previews := graded.Previews()
	workbook, err := spreadsheet.Build(sheet, previews, graded.Metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build graded workbook")
	}
	if *out == "" {
		*out = strings.TrimSuffix(input, filepath.Ext(input)) + "_graded.xlsx"
	}
	if err := os.WriteFile(*out, workbook, 0o644); err != nil {
		log.Fatal().Err(err).Msg("Failed to write graded workbook")
	}

	if *pdf != "" {
		data, err := report.Render(previews, graded.Metrics)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to render report")
		}
		if err := os.WriteFile(*pdf, data, 0o644); err != nil {
			log.Fatal().Err(err).Msg("Failed to write report")
		}
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(graded.Metrics); err != nil {
			log.Fatal().Err(err).Msg("Failed to encode metrics")
		}
		return
	}

	fmt.Printf("=== %s (%s) ===\n", filepath.Base(input), shape)
	for _, p := range previews {
		fmt.Printf("%-14s %6.2f\n", p.DNI, p.Score)
	}
	fmt.Println()
	for _, row := range graded.Metrics.ClassMetrics.Table() {
		fmt.Printf("%-14s %v\n", row.Label, row.Value)
	}
	fmt.Printf("\nGraded workbook written to %s\n", *out)
}
