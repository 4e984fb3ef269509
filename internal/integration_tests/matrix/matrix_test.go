package integration_tests

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/lpjcfg/internal/app"
	"github.com/vk/lpjcfg/internal/document"
	"github.com/vk/lpjcfg/internal/keypath"
	"github.com/vk/lpjcfg/internal/testutil"
)

// matrixTree returns the LPJmL tree with the given matrix file next to the
// template.
func matrixTree(matrix string) map[string]string {
	files := testutil.LPJmLTree()
	files["matrix.hcl"] = matrix
	return files
}

var summaryLine = regexp.MustCompile(`^(ok|FAIL)\s+(\S+)\s+([0-9a-f]{12})\s+(\d+) errors?, (\d+) warnings?$`)

// summary maps run names to their status and digest prefix.
func summary(t *testing.T, stdout string) map[string][2]string {
	t.Helper()
	out := make(map[string][2]string)
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		if m := summaryLine.FindStringSubmatch(line); m != nil {
			out[m[2]] = [2]string{m[1], m[3]}
		}
	}
	return out
}

func TestMatrix_AllRunsPass(t *testing.T) {
	t.Parallel()

	result := testutil.RunApp(t, matrixTree(testutil.LPJmLMatrix), app.Config{
		MatrixPaths: []string{"matrix.hcl"},
	})

	require.NoError(t, result.Err, "stdout:\n%s\nlogs:\n%s", result.Stdout, result.LogOutput)
	runs := summary(t, result.Stdout)
	require.Len(t, runs, 3, result.Stdout)
	for _, name := range []string{"RUN_ID_01", "RUN_ID_11", "RUN_ID_12"} {
		assert.Equal(t, "ok", runs[name][0], name)
	}
	assert.NotEqual(t, runs["RUN_ID_11"][1], runs["RUN_ID_12"][1], "runs differing in irrigation must differ in digest")
	assert.Contains(t, result.LogOutput, "Resolving matrix.")
	assert.Contains(t, result.LogOutput, "Matrix finished.")

	// Lines keep the declaration order of the runs.
	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "ok    RUN_ID_01"), lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "ok    RUN_ID_12"), lines[2])
}

func TestMatrix_DigestsAreStable(t *testing.T) {
	t.Parallel()

	first := testutil.RunApp(t, matrixTree(testutil.LPJmLMatrix), app.Config{MatrixPaths: []string{"matrix.hcl"}, WorkerCount: 1})
	second := testutil.RunApp(t, matrixTree(testutil.LPJmLMatrix), app.Config{MatrixPaths: []string{"matrix.hcl"}, WorkerCount: 8})
	require.NoError(t, first.Err)
	require.NoError(t, second.Err)
	assert.Equal(t, summary(t, first.Stdout), summary(t, second.Stdout))
}

func TestMatrix_WritesOutputDir(t *testing.T) {
	t.Parallel()

	result := testutil.RunApp(t, matrixTree(testutil.LPJmLMatrix), app.Config{
		MatrixPaths: []string{"matrix.hcl"},
		OutputDir:   "resolved",
	})
	require.NoError(t, result.Err, result.Stdout)

	entries, err := os.ReadDir(filepath.Join(result.Root, "resolved"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"RUN_ID_01.json", "RUN_ID_11.json", "RUN_ID_12.json"}, names)

	data, err := os.ReadFile(filepath.Join(result.Root, "resolved", "RUN_ID_12.json"))
	require.NoError(t, err)
	doc, err := document.Parse(data, document.Options{})
	require.NoError(t, err)
	v, ok := doc.Lookup(keypath.MustParse("irrigation"))
	require.True(t, ok)
	assert.Equal(t, "pot", v)
}

func TestMatrix_FailingExpectation(t *testing.T) {
	t.Parallel()

	matrix := `template = "lpjml.cjson"
include_dirs = ["include"]

run "RUN_ID_01" {
  expect "irrigation" {
    equals = "pot"
  }
  expect "restart_filename" {
    present = true
  }
}

run "RUN_ID_12" {
  expect "output" {
    length = 0
  }
}
`
	result := testutil.RunApp(t, matrixTree(matrix), app.Config{MatrixPaths: []string{"matrix.hcl"}})

	var failed *app.FailedError
	require.ErrorAs(t, result.Err, &failed)
	assert.Equal(t, []string{"RUN_ID_01"}, failed.Runs)

	runs := summary(t, result.Stdout)
	assert.Equal(t, "FAIL", runs["RUN_ID_01"][0])
	assert.Equal(t, "ok", runs["RUN_ID_12"][0])
	assert.Contains(t, result.Stdout, `      error irrigation: expected "pot", got "no" [expectation]`)
	assert.Contains(t, result.Stdout, "      error restart_filename: expected to be present [expectation]")
}

func TestMatrix_RunErrorIsReportedPerRun(t *testing.T) {
	t.Parallel()

	// RUN_ID_13 selects no branch, so DIRRIG stays an identifier.
	matrix := `template = "lpjml.cjson"
include_dirs = ["include"]

run "RUN_ID_12" {}
run "RUN_ID_13" {}
`
	result := testutil.RunApp(t, matrixTree(matrix), app.Config{MatrixPaths: []string{"matrix.hcl"}})

	var failed *app.FailedError
	require.ErrorAs(t, result.Err, &failed)
	assert.Equal(t, []string{"RUN_ID_13"}, failed.Runs)
	assert.Contains(t, result.Stdout, "FAIL  RUN_ID_13  lpjml.cjson:37: invalid JSON after preprocessing")
	assert.Equal(t, "ok", summary(t, result.Stdout)["RUN_ID_12"][0])
}

func TestMatrix_CommandLineDefinesApplyToEveryRun(t *testing.T) {
	t.Parallel()

	matrix := `template = "lpjml.cjson"
include_dirs = ["include"]

run "RUN_ID_11" {
  expect "output" {
    length = 3
  }
}
`
	result := testutil.RunApp(t, matrixTree(matrix), app.Config{
		MatrixPaths: []string{"matrix.hcl"},
		Defines:     []string{"FROM_RESTART", "DAILY_OUTPUT"},
	})

	// The expectation holds, but the duplicate firec id fails the run.
	var failed *app.FailedError
	require.ErrorAs(t, result.Err, &failed)
	assert.Contains(t, result.Stdout, `duplicate output id "firec"`)
	assert.NotContains(t, result.Stdout, "[expectation]")
}

func TestMatrix_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		matrix  string
		wantErr string
	}{
		{
			name:    "no runs",
			matrix:  `template = "lpjml.cjson"`,
			wantErr: "the matrix declares no runs",
		},
		{
			name:    "invalid hcl",
			matrix:  `template = `,
			wantErr: "failed to load matrix",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			result := testutil.RunApp(t, matrixTree(tc.matrix), app.Config{MatrixPaths: []string{"matrix.hcl"}})
			require.Error(t, result.Err)
			assert.Contains(t, result.Err.Error(), tc.wantErr)
		})
	}
}
