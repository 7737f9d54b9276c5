package sheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"yashubustudio/caselink/caselink"
)

var diagnosticHeader = []string{"row", "kind", "query", "candidate", "score"}

// WriteDiagnostics writes the near-miss report as CSV.
func WriteDiagnostics(path string, diags []caselink.Diagnostic) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create diagnostics dir: %w", err)
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(diagnosticHeader); err != nil {
		return err
	}
	for _, d := range diags {
		record := []string{
			strconv.Itoa(d.Row),
			d.Kind,
			d.Query,
			d.Candidate,
			strconv.FormatFloat(d.Score, 'f', 1, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write diagnostic row %d: %w", d.Row, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush diagnostics: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}
