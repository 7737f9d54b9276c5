package app

import (
	"path/filepath"
	"strings"
)

const diagnosticsFile = "ambiguous_matches.csv"

// skipOutput disables an optional output.
const skipOutput = "-"

// resolveOutputPaths fills the output locations left empty. Outputs land next
// to the cases file unless told otherwise.
func resolveOutputPaths(opts Options) Options {
	out := opts
	dir := filepath.Dir(opts.CasesPath)
	ext := filepath.Ext(opts.CasesPath)
	base := strings.TrimSuffix(filepath.Base(opts.CasesPath), ext)
	if strings.TrimSpace(out.OutputPath) == "" {
		out.OutputPath = filepath.Join(dir, base+"_linked"+ext)
	}
	outExt := strings.ToLower(filepath.Ext(out.OutputPath))
	if strings.TrimSpace(out.Diagnostics) == "" {
		out.Diagnostics = filepath.Join(filepath.Dir(out.OutputPath), diagnosticsFile)
	}
	if out.CSVPath == "" && outExt != ".csv" && outExt != ".tsv" {
		out.CSVPath = strings.TrimSuffix(out.OutputPath, filepath.Ext(out.OutputPath)) + ".csv"
	}
	if out.CleanedPath == "" {
		out.CleanedPath = strings.TrimSuffix(out.OutputPath, filepath.Ext(out.OutputPath)) + "_cleaned" + filepath.Ext(out.OutputPath)
	}
	if out.CSVPath == skipOutput {
		out.CSVPath = ""
	}
	if out.CleanedPath == skipOutput {
		out.CleanedPath = ""
	}
	return out
}
