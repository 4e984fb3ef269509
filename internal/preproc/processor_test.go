package preproc_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/lpjcfg/internal/ctxlog"
	"github.com/vk/lpjcfg/internal/macro"
	"github.com/vk/lpjcfg/internal/preproc"
	"github.com/vk/lpjcfg/internal/testutil"
)

func definitions(t *testing.T, defs ...string) *macro.Table {
	t.Helper()
	table := macro.NewTable()
	for _, d := range defs {
		m, err := macro.ParseDefine(d)
		require.NoError(t, err)
		table.Set(m)
	}
	return table
}

func resolveFixture(t *testing.T, defs ...string) (*preproc.Output, string) {
	t.Helper()
	root := testutil.WriteTree(t, testutil.LPJmLTree())
	p := preproc.New(preproc.Options{})
	out, err := p.Process(ctxlog.Discard(), filepath.Join(root, "lpjml.cjson"), definitions(t, defs...))
	require.NoError(t, err)
	return out, root
}

func decode(t *testing.T, text string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &doc), "resolved text:\n%s", text)
	return doc
}

func TestProcessHistoricalSpinup(t *testing.T) {
	t.Parallel()

	out, root := resolveFixture(t, "RUN_ID_01")
	doc := decode(t, out.Text)

	assert.Equal(t, []any{}, doc["output"], "without FROM_RESTART the output list must be empty")
	assert.Equal(t, "no", doc["irrigation"])
	assert.Equal(t, false, doc["river_routing"])
	assert.Equal(t, "lpjml", doc["sim_id"])
	assert.Equal(t, "all", doc["startgrid"])

	input := doc["input"].(map[string]any)
	assert.Equal(t, "clm", input["temp"].(map[string]any)["fmt"], "CRU climate is selected for RUN_ID_01")

	assert.Equal(t, []string{
		filepath.Join(root, "lpjml.cjson"),
		filepath.Join(root, "include", "conf.h"),
		filepath.Join(root, "par", "param.cjson"),
		filepath.Join(root, "input", "input_cru.cjson"),
	}, out.Files)
	assert.Empty(t, out.Diagnostics)
}

func TestProcessScenarioRun(t *testing.T) {
	t.Parallel()

	out, _ := resolveFixture(t, "RUN_ID_11", "FROM_RESTART")
	doc := decode(t, out.Text)

	assert.Equal(t, "lim", doc["irrigation"])
	assert.Equal(t, true, doc["river_routing"])
	assert.Equal(t, float64(2080), doc["firstyear"])
	assert.Equal(t, float64(2099), doc["lastyear"])

	outputs := doc["output"].([]any)
	require.Len(t, outputs, 2)
	file := outputs[0].(map[string]any)["file"].(map[string]any)
	assert.Equal(t, "output/vegc.bin", file["name"], "mkstr must stringify the expanded path")

	pfts := doc["pftpar"].([]any)
	require.Len(t, pfts, 3)
	assert.Equal(t, float64(1), pfts[0].(map[string]any)["lmro_ratio"])

	tdef, ok := out.Macros.Lookup("DTIM")
	require.True(t, ok)
	assert.Equal(t, "TIM_2080_2099", tdef.Value())
}

func TestProcessKeepsInitialTable(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, testutil.LPJmLTree())
	initial := definitions(t, "RUN_ID_12")
	_, err := preproc.New(preproc.Options{}).Process(ctxlog.Discard(), filepath.Join(root, "lpjml.cjson"), initial)
	require.NoError(t, err)
	assert.Equal(t, []string{"RUN_ID_12"}, initial.Names())
}

func TestProcessUnknownRunIsDiagnosed(t *testing.T) {
	t.Parallel()

	out, root := resolveFixture(t, "RUN_ID_13")

	require.Len(t, out.Diagnostics, 1)
	d := out.Diagnostics[0]
	assert.Equal(t, preproc.UnmatchedConditional, d.Kind)
	assert.Equal(t, filepath.Join(root, "lpjml.cjson"), d.Origin.File)
	assert.Equal(t, 7, d.Origin.Line)
	assert.Contains(t, out.Text, `"irrigation" : DIRRIG,`, "an unselected variant leaves the macro unexpanded")
}

func TestProcessOriginMap(t *testing.T) {
	t.Parallel()

	out, root := resolveFixture(t, "RUN_ID_01")
	lines := strings.Split(strings.TrimSuffix(out.Text, "\n"), "\n")
	require.Len(t, out.Lines, len(lines))

	for i, line := range lines {
		if strings.Contains(line, `"pftpar"`) {
			origin, ok := out.Origin(i + 1)
			require.True(t, ok)
			assert.Equal(t, filepath.Join(root, "par", "param.cjson"), origin.File)
			assert.Equal(t, 2, origin.Line)
			return
		}
	}
	t.Fatal("pftpar line not found in output")
}

func TestProcessDirectives(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		files       map[string]string
		defs        []string
		includeDirs []string
		expected    string
		expectErr   string
	}{
		{
			name:     "ifndef and undef",
			files:    map[string]string{"main.cjson": "#define A 1\n#undef A\n#ifndef A\nyes\n#endif\n"},
			expected: "yes\n",
		},
		{
			name:     "angle include uses search path only",
			files:    map[string]string{"main.cjson": "#include <shared.h>\nX\n", "lib/shared.h": "#define X 42\n"},
			expected: "42\n",
			// include dir is added below relative to the tree root
			includeDirs: []string{"lib"},
		},
		{
			name:     "computed include",
			files:    map[string]string{"main.cjson": "#define PAR \"par.cjson\"\n#include PAR\n", "par.cjson": "\"k\" : 1\n"},
			expected: "\"k\" : 1\n",
		},
		{
			name:     "pragma and null directive ignored",
			files:    map[string]string{"main.cjson": "#pragma once\n#\nv\n"},
			expected: "v\n",
		},
		{
			name:     "command line value used in elif chain",
			files:    map[string]string{"main.cjson": "#if NSPINUP > 1000\nlong\n#elif NSPINUP > 0\nshort\n#else\nnone\n#endif\n"},
			defs:     []string{"NSPINUP=390"},
			expected: "short\n",
		},
		{
			name:     "skipped region may hold anything",
			files:    map[string]string{"main.cjson": "#ifdef NOPE\n#if 1 / 0\n#bogus\n#endif\n#endif\nok\n"},
			expected: "ok\n",
		},
		{
			name:      "error directive",
			files:     map[string]string{"main.cjson": "#ifndef RUN_ID\n#error RUN_ID must be set\n#endif\n"},
			expectErr: "#error RUN_ID must be set",
		},
		{
			name:      "unknown directive",
			files:     map[string]string{"main.cjson": "#inlcude \"x\"\n"},
			expectErr: "unknown directive #inlcude",
		},
		{
			name:      "missing include",
			files:     map[string]string{"main.cjson": "#include \"missing.cjson\"\n"},
			expectErr: "missing.cjson: no such file",
		},
		{
			name:      "include cycle",
			files:     map[string]string{"main.cjson": "#include \"a.h\"\n", "a.h": "#include \"main.cjson\"\n"},
			expectErr: "include cycle",
		},
		{
			name:      "unterminated conditional",
			files:     map[string]string{"main.cjson": "#ifdef A\nx\n"},
			expectErr: "main.cjson:1: unterminated conditional",
		},
		{
			name:      "stray endif",
			files:     map[string]string{"main.cjson": "#endif\n"},
			expectErr: "#endif without #if",
		},
		{
			name:      "else after else",
			files:     map[string]string{"main.cjson": "#if 1\n#else\n#else\n#endif\n"},
			expectErr: "#else after #else",
		},
		{
			name:      "macro call cut short by a directive",
			files:     map[string]string{"main.cjson": "#define PAIR(a, b) [a, b]\nPAIR(1,\n#define X\n2)\n"},
			expectErr: "main.cjson:2: expanding macros: macro PAIR: unterminated argument list",
		},
		{
			name:      "bad if expression",
			files:     map[string]string{"main.cjson": "#if (1\n#endif\n"},
			expectErr: "missing ')'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			root := testutil.WriteTree(t, tc.files)
			var dirs []string
			for _, d := range tc.includeDirs {
				dirs = append(dirs, filepath.Join(root, d))
			}
			p := preproc.New(preproc.Options{IncludeDirs: dirs})
			out, err := p.Process(ctxlog.Discard(), filepath.Join(root, "main.cjson"), definitions(t, tc.defs...))

			if tc.expectErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, out.Text)
		})
	}
}

func TestProcessMacroCallAcrossLines(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{
		"main.cjson": "#define PAIR(a, b) [a, b]\n\"pair\" : PAIR(1,\n  2), \"next\" : PAIR(3,\n4)\nend\n",
	})
	p := preproc.New(preproc.Options{})
	out, err := p.Process(ctxlog.Discard(), filepath.Join(root, "main.cjson"), macro.NewTable())
	require.NoError(t, err)

	assert.Equal(t, "\"pair\" : [1, 2], \"next\" : [3, 4]\nend\n", out.Text)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, 2, out.Lines[0].Line)
	assert.Equal(t, 5, out.Lines[1].Line)
}

func TestProcessRedefinitionAndWarning(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{
		"main.cjson": "#define A 1\n#define A 1\n#define A 2\n#warning check A\nA\n",
	})
	out, err := preproc.New(preproc.Options{}).Process(ctxlog.Discard(), filepath.Join(root, "main.cjson"), macro.NewTable())
	require.NoError(t, err)

	assert.Equal(t, "2\n", out.Text)
	require.Len(t, out.Diagnostics, 2)
	assert.Equal(t, preproc.MacroRedefined, out.Diagnostics[0].Kind)
	assert.Equal(t, 3, out.Diagnostics[0].Origin.Line)
	assert.Equal(t, preproc.WarningDirective, out.Diagnostics[1].Kind)
	assert.Equal(t, "check A", out.Diagnostics[1].Message)
}

func TestProcessHonoursCancellation(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{"main.cjson": "{}\n"})
	ctx, cancel := context.WithCancel(ctxlog.Discard())
	cancel()

	_, err := preproc.New(preproc.Options{}).Process(ctx, filepath.Join(root, "main.cjson"), macro.NewTable())
	require.ErrorIs(t, err, context.Canceled)
}
