// Package app wires configuration, rule tables, spreadsheets and the linking
// pipeline into the batch run behind the caselink command.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"yashubustudio/caselink/caselink"
	"yashubustudio/caselink/sheet"
)

// Options are the inputs of one batch run.
type Options struct {
	ConfigPath    string
	RulesPath     string
	CasesPath     string
	Organizations []string
	People        []string
	OutputPath    string
	CleanedPath   string
	CSVPath       string
	Diagnostics   string
}

// Result reports what a run produced.
type Result struct {
	Report            caselink.Report
	Sheet             string
	OutputPath        string
	CleanedPath       string
	CSVPath           string
	DiagnosticsPath   string
	MissingReferences []string
	RulesFromFile     bool
	Semantic          bool
}

// Run loads every input, links and labels the chosen case sheet and writes
// the outputs.
func Run(ctx context.Context, opts Options, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var res Result
	if strings.TrimSpace(opts.CasesPath) == "" {
		return res, errors.New("missing cases file")
	}

	cfg, err := caselink.LoadConfig(opts.ConfigPath)
	if err != nil {
		return res, fmt.Errorf("load config: %w", err)
	}
	rulesPath := opts.RulesPath
	if rulesPath == "" {
		rulesPath = cfg.RulesPath
	}
	rules, fromFile, err := caselink.LoadRuleSet(rulesPath)
	if err != nil {
		return res, fmt.Errorf("load rules: %w", err)
	}
	res.RulesFromFile = fromFile
	if fromFile {
		logger.Info("rule overrides applied", zap.String("path", rulesPath))
	}

	wb, err := sheet.Read(opts.CasesPath)
	if err != nil {
		return res, fmt.Errorf("read cases: %w", err)
	}
	table := wb.Pick(cfg.PreferredSheets)
	res.Sheet = table.Name
	logger.Info("case sheet selected",
		zap.String("file", opts.CasesPath),
		zap.String("sheet", table.Name),
		zap.Int("rows", len(table.Rows)))

	refs, missing, err := loadReferences(opts, cfg.Columns)
	if err != nil {
		return res, err
	}
	res.MissingReferences = missing
	for _, path := range missing {
		logger.Warn("reference file not found, continuing with an empty table", zap.String("path", path))
	}

	source := caselink.NewSimilaritySource(ctx, cfg.Embedder, logger)
	defer source.Close()
	res.Semantic = source.Available()

	pipeline, err := caselink.NewPipeline(ctx, cfg, refs, rules, source, logger)
	if err != nil {
		return res, fmt.Errorf("init pipeline: %w", err)
	}
	binding := sheet.BindCases(table, cfg.Columns)
	records := binding.Records()
	report, err := pipeline.Run(ctx, records)
	if err != nil {
		return res, fmt.Errorf("run pipeline: %w", err)
	}
	res.Report = report
	binding.Apply(records)

	if err := writeOutputs(&res, opts, wb, table); err != nil {
		return res, err
	}
	return res, nil
}

func loadReferences(opts Options, cols caselink.ColumnCandidates) (caselink.References, []string, error) {
	var refs caselink.References
	orgs, missingOrgs, err := sheet.LoadReferences(opts.Organizations, cols, sheet.Organizations)
	if err != nil {
		return refs, nil, fmt.Errorf("read organizations: %w", err)
	}
	people, missingPeople, err := sheet.LoadReferences(opts.People, cols, sheet.People)
	if err != nil {
		return refs, nil, fmt.Errorf("read people: %w", err)
	}
	refs.Organizations = orgs
	refs.People = people
	return refs, append(missingOrgs, missingPeople...), nil
}

func writeOutputs(res *Result, opts Options, wb *sheet.Workbook, table *sheet.Table) error {
	paths := resolveOutputPaths(opts)
	if err := sheet.Write(paths.OutputPath, wb, table); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	res.OutputPath = paths.OutputPath
	if err := sheet.WriteDiagnostics(paths.Diagnostics, res.Report.Diagnostics); err != nil {
		return fmt.Errorf("write diagnostics: %w", err)
	}
	res.DiagnosticsPath = paths.Diagnostics
	if paths.CleanedPath == "" && paths.CSVPath == "" {
		return nil
	}

	// The cleaned copy and the csv export both come from cleaned sheets.
	for _, t := range wb.Sheets {
		t.Clean()
	}
	if paths.CleanedPath != "" {
		if err := sheet.Write(paths.CleanedPath, wb, table); err != nil {
			return fmt.Errorf("write cleaned output: %w", err)
		}
		res.CleanedPath = paths.CleanedPath
	}
	if paths.CSVPath != "" {
		if err := sheet.Write(paths.CSVPath, wb, table); err != nil {
			return fmt.Errorf("write sheet csv: %w", err)
		}
		res.CSVPath = paths.CSVPath
	}
	return nil
}
