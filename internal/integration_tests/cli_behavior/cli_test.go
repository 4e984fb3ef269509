package integration_tests

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/vk/lpjcfg/internal/app"
	"github.com/vk/lpjcfg/internal/cli"
)

func noEnv(string) (string, bool) { return "", false }

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		args           []string
		expectExit     bool
		expectErr      bool
		expectedConfig *app.Config
		checkOutput    func(t *testing.T, output string)
	}{
		{
			name: "Happy Path with all flags",
			args: []string{
				"-D", "RUN_ID_11",
				"-DFROM_RESTART",
				"--define=F(x)=x",
				"-U", "WITH_GRIDBASED",
				"-I", "/lpjml/include",
				"--include-dir=/lpjml/par",
				"-o", "/tmp/out.yaml",
				"--format=YAML",
				"--lenient",
				"--strict",
				"--log-level=debug",
				"--log-format=json",
				"--workers=8",
				"lpjml.cjson",
			},
			expectedConfig: &app.Config{
				Template:    "lpjml.cjson",
				Defines:     []string{"RUN_ID_11", "FROM_RESTART", "F(x)=x"},
				Undefines:   []string{"WITH_GRIDBASED"},
				IncludeDirs: []string{"/lpjml/include", "/lpjml/par"},
				Output:      "/tmp/out.yaml",
				Format:      "yaml",
				Check:       true,
				Lenient:     true,
				Strict:      true,
				LogLevel:    "debug",
				LogFormat:   "json",
				WorkerCount: 8,
			},
		},
		{
			name: "Matrix with defaults",
			args: []string{"--matrix", "experiments/", "-m", "extra.hcl", "--output-dir", "out"},
			expectedConfig: &app.Config{
				MatrixPaths: []string{"experiments/", "extra.hcl"},
				OutputDir:   "out",
				Format:      "json",
				LogLevel:    "info",
				LogFormat:   "text",
				WorkerCount: app.DefaultWorkerCount,
			},
		},
		{
			name:       "Help flag triggers clean exit",
			args:       []string{"-h"},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "Usage:"), "Expected help text to be printed")
				require.True(t, strings.Contains(output, "--include-dir"), "Expected flag defaults to be printed")
			},
		},
		{
			name:       "No template triggers clean exit with usage",
			args:       []string{},
			expectExit: true,
			checkOutput: func(t *testing.T, output string) {
				require.True(t, strings.Contains(output, "Usage:"), "Expected help text to be printed")
			},
		},
		{
			name:      "Two templates return an error",
			args:      []string{"a.cjson", "b.cjson"},
			expectErr: true,
		},
		{
			name:      "Template and matrix return an error",
			args:      []string{"--matrix", "m.hcl", "a.cjson"},
			expectErr: true,
		},
		{
			name:      "Output dir without a matrix returns an error",
			args:      []string{"--output-dir", "out", "a.cjson"},
			expectErr: true,
		},
		{
			name:      "Invalid format returns an error",
			args:      []string{"--format=toml", "a.cjson"},
			expectErr: true,
		},
		{
			name:      "Invalid log level returns an error",
			args:      []string{"--log-level=foo", "a.cjson"},
			expectErr: true,
		},
		{
			name:      "Invalid log format returns an error",
			args:      []string{"--log-format=yaml", "a.cjson"},
			expectErr: true,
		},
		{
			name:      "Missing explicit env file returns an error",
			args:      []string{"--env-file=/does/not/exist.env", "a.cjson"},
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			out := &bytes.Buffer{}

			// --- Act ---
			appConfig, shouldExit, err := cli.ParseWithEnv(tc.args, out, noEnv)

			// --- Assert ---
			if tc.expectErr {
				require.Error(t, err)
				var exitErr *cli.ExitError
				require.ErrorAs(t, err, &exitErr, "Expected error to be of type ExitError")
				require.Equal(t, 2, exitErr.Code)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expectExit, shouldExit)

			if tc.expectedConfig != nil {
				if diff := cmp.Diff(tc.expectedConfig, appConfig); diff != "" {
					t.Errorf("Config mismatch (-want +got):\n%s", diff)
				}
			}
			if tc.checkOutput != nil {
				tc.checkOutput(t, out.String())
			}
		})
	}
}

func TestParse_LPJROOT(t *testing.T) {
	t.Parallel()

	t.Run("from the environment", func(t *testing.T) {
		t.Parallel()
		env := func(key string) (string, bool) {
			if key == cli.RootEnv {
				return "/opt/lpjml", true
			}
			return "", false
		}
		cfg, _, err := cli.ParseWithEnv([]string{"-I", "include", "lpjml.cjson"}, &bytes.Buffer{}, env)
		require.NoError(t, err)
		require.Equal(t, []string{"include", "/opt/lpjml", filepath.Join("/opt/lpjml", "par")}, cfg.IncludeDirs)
	})

	t.Run("from an env file", func(t *testing.T) {
		t.Parallel()
		envFile := filepath.Join(t.TempDir(), "lpj.env")
		require.NoError(t, os.WriteFile(envFile, []byte("LPJROOT=/home/lpj/LPJmL\n"), 0o600))

		cfg, _, err := cli.ParseWithEnv([]string{"--env-file", envFile, "lpjml.cjson"}, &bytes.Buffer{}, noEnv)
		require.NoError(t, err)
		require.Equal(t, []string{"/home/lpj/LPJmL", filepath.Join("/home/lpj/LPJmL", "par")}, cfg.IncludeDirs)
	})

	t.Run("environment wins over the file", func(t *testing.T) {
		t.Parallel()
		envFile := filepath.Join(t.TempDir(), "lpj.env")
		require.NoError(t, os.WriteFile(envFile, []byte("LPJROOT=/from/file\n"), 0o600))
		env := func(key string) (string, bool) { return "/from/env", key == cli.RootEnv }

		cfg, _, err := cli.ParseWithEnv([]string{"--env-file", envFile, "lpjml.cjson"}, &bytes.Buffer{}, env)
		require.NoError(t, err)
		require.Equal(t, "/from/env", cfg.IncludeDirs[0])
	})
}
