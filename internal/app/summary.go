package app

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	"yashubustudio/caselink/caselink"
)

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	headColor = color.New(color.Bold)
)

// PrintSummary writes a short human readable report of res to w.
func PrintSummary(w io.Writer, res Result) {
	r := res.Report
	headColor.Fprintf(w, "caselink run %s\n", r.RunID)
	fmt.Fprintf(w, "  sheet:         %s\n", res.Sheet)
	fmt.Fprintf(w, "  processed:     %d\n", r.Processed)
	fmt.Fprintf(w, "  organizations: %s\n", okColor.Sprint(r.OrganizationsFilled))
	fmt.Fprintf(w, "  contacts:      %s\n", okColor.Sprint(r.ContactsFilled))
	fmt.Fprintf(w, "  back-filled:   %s\n", okColor.Sprint(r.BackFilled))
	fmt.Fprintf(w, "  labeled:       %s\n", okColor.Sprint(r.Labeled))
	if len(r.StageHits) > 0 {
		fmt.Fprintf(w, "  match stages:  %s\n", formatStages(r.StageHits))
	}
	if len(r.LabelHits) > 0 {
		fmt.Fprintf(w, "  label stages:  %s\n", formatStages(r.LabelHits))
	}
	semantic := okColor.Sprint("on")
	if !res.Semantic {
		semantic = warnColor.Sprint("off")
	}
	fmt.Fprintf(w, "  semantic:      %s\n", semantic)
	if n := len(r.Diagnostics); n > 0 {
		fmt.Fprintf(w, "  near misses:   %s (%s)\n", warnColor.Sprint(n), res.DiagnosticsPath)
	}
	for _, path := range res.MissingReferences {
		fmt.Fprintf(w, "  %s reference file %s\n", warnColor.Sprint("missing"), path)
	}
	fmt.Fprintf(w, "  output:        %s\n", res.OutputPath)
	if res.CSVPath != "" {
		fmt.Fprintf(w, "  csv:           %s\n", res.CSVPath)
	}
	if res.CleanedPath != "" {
		fmt.Fprintf(w, "  cleaned:       %s\n", res.CleanedPath)
	}
}

func formatStages(hits map[caselink.Stage]int) string {
	stages := make([]string, 0, len(hits))
	for stage := range hits {
		stages = append(stages, string(stage))
	}
	sort.Strings(stages)
	out := ""
	for i, stage := range stages {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", stage, hits[caselink.Stage(stage)])
	}
	return out
}
