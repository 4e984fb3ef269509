package integration_tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/lpjcfg/internal/config"
	"github.com/vk/lpjcfg/internal/ctxlog"
	"github.com/vk/lpjcfg/internal/hcl_adapter"
	"github.com/vk/lpjcfg/internal/keypath"
	"github.com/vk/lpjcfg/internal/testutil"
)

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	root := testutil.WriteTree(t, map[string]string{
		"experiments/irrigation.hcl": `
			template     = "../lpjml.cjson"
			include_dirs = ["../include", "/opt/lpjml/par"]
			defines      = ["FROM_RESTART", "NSPINUP=390"]
			lenient      = true

			pft_rule "tmin.base" {
				required = false
				min      = -40
				max      = 40
			}

			run "RUN_ID_11" {
				expect "irrigation" {
					equals = "lim"
				}
				expect "output" {
					length  = 2
					present = true
				}
			}
		`,
		"experiments/more/spinup.hcl": `
			run "spinup" {
				defines   = ["RUN_ID_01"]
				undefines = ["FROM_RESTART"]
				expect "output[0].file" {
					present = false
				}
			}
		`,
		"experiments/notes.txt": "not a matrix file",
	})

	// --- Act ---
	loader := hcl_adapter.NewLoader()
	model, converter, err := loader.Load(ctxlog.Discard(), filepath.Join(root, "experiments"))

	// --- Assert ---
	require.NoError(t, err)
	require.NotNil(t, converter)

	require.Equal(t, filepath.Join(root, "lpjml.cjson"), model.Template)
	require.Equal(t, []string{filepath.Join(root, "include"), "/opt/lpjml/par"}, model.IncludeDirs)
	require.Equal(t, []string{"FROM_RESTART", "NSPINUP=390"}, model.Defines)
	require.True(t, model.Lenient)

	minBase, maxBase := -40.0, 40.0
	wantRules := []*config.Rule{{Field: keypath.MustParse("tmin.base"), Required: false, Min: &minBase, Max: &maxBase}}
	if diff := cmp.Diff(wantRules, model.Rules); diff != "" {
		t.Errorf("Rules mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, model.Runs, 2)
	run11, ok := model.Run("RUN_ID_11")
	require.True(t, ok)
	require.Equal(t, []string{"RUN_ID_11"}, run11.Defines, "defines default to the run name")
	require.Len(t, run11.Expectations, 2)
	require.NotNil(t, run11.Expectations[0].Equals)
	require.True(t, run11.Expectations[0].Equals.RawEquals(cty.StringVal("lim")))
	require.Equal(t, 2, *run11.Expectations[1].Length)
	require.True(t, *run11.Expectations[1].Present)

	spinup, ok := model.Run("spinup")
	require.True(t, ok)
	require.Equal(t, []string{"RUN_ID_01"}, spinup.Defines)
	require.Equal(t, []string{"FROM_RESTART"}, spinup.Undefines)
	require.Equal(t, "output[0].file", spinup.Expectations[0].Path.String())
	require.False(t, *spinup.Expectations[0].Present)
	require.Equal(t, filepath.Join(root, "experiments", "more", "spinup.hcl"), spinup.File)
}

func TestLoader_EmptyDefines(t *testing.T) {
	t.Parallel()

	root := testutil.WriteTree(t, map[string]string{
		"m.hcl": `
			template = "/abs/lpjml.cjson"
			run "baseline" {
				defines = []
			}
		`,
	})
	model, _, err := hcl_adapter.NewLoader().Load(ctxlog.Discard(), filepath.Join(root, "m.hcl"))
	require.NoError(t, err)
	require.Equal(t, "/abs/lpjml.cjson", model.Template)
	require.Empty(t, model.Runs[0].Defines, "an explicit empty list defines nothing")
}

func TestLoader_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "syntax error",
			files:   map[string]string{"m.hcl": `run "a" {`},
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "unknown block",
			files:   map[string]string{"m.hcl": "template = \"t\"\nstep \"a\" {}\n"},
			wantErr: "failed to decode HCL file",
		},
		{
			name:    "no template",
			files:   map[string]string{"m.hcl": `run "a" {}`},
			wantErr: "no template declared",
		},
		{
			name: "template declared twice",
			files: map[string]string{
				"a.hcl": `template = "a.cjson"`,
				"b.hcl": `template = "b.cjson"`,
			},
			wantErr: "template already declared",
		},
		{
			name: "duplicate run",
			files: map[string]string{
				"a.hcl": "template = \"t\"\nrun \"RUN_ID_01\" {}\n",
				"b.hcl": `run "RUN_ID_01" {}`,
			},
			wantErr: `run "RUN_ID_01" already declared`,
		},
		{
			name:    "empty expectation",
			files:   map[string]string{"m.hcl": "template = \"t\"\nrun \"a\" {\n  expect \"fire\" {}\n}\n"},
			wantErr: "needs at least one of equals, length or present",
		},
		{
			name:    "bad key path",
			files:   map[string]string{"m.hcl": "template = \"t\"\nrun \"a\" {\n  expect \"output[x]\" {\n    present = true\n  }\n}\n"},
			wantErr: `expect "output[x]"`,
		},
		{
			name:    "inverted rule bounds",
			files:   map[string]string{"m.hcl": "template = \"t\"\npft_rule \"sla\" {\n  min = 2\n  max = 1\n}\n"},
			wantErr: "min 2 exceeds max 1",
		},
		{
			name:    "no matrix files",
			files:   map[string]string{"readme.md": "nothing here"},
			wantErr: hcl_adapter.ErrNoFiles.Error(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			root := testutil.WriteTree(t, tc.files)
			_, _, err := hcl_adapter.NewLoader().Load(ctxlog.Discard(), root)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoader_MissingPath(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "missing.hcl")
	_, _, err := hcl_adapter.NewLoader().Load(ctxlog.Discard(), missing)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestConverter_ToCtyValue(t *testing.T) {
	t.Parallel()

	conv := hcl_adapter.NewConverter()

	v, err := conv.ToCtyValue(nil)
	require.NoError(t, err)
	require.True(t, v.IsNull())

	v, err = conv.ToCtyValue([]any{"a", true})
	require.NoError(t, err)
	require.True(t, v.RawEquals(cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.True})))
}
