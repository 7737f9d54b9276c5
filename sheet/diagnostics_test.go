package sheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/caselink/caselink"
)

func TestWriteDiagnostics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ambiguous_matches.csv")
	err := WriteDiagnostics(path, []caselink.Diagnostic{
		{Row: 2, Kind: caselink.KindOrganization, Query: "akme", Candidate: "acme", Score: 75},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "row,kind,query,candidate,score\n2,organization,akme,acme,75.0\n", string(data))
}

func TestWriteDiagnosticsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ambiguous_matches.csv")
	require.NoError(t, WriteDiagnostics(path, nil))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "row,kind,query,candidate,score\n", string(data))
}
