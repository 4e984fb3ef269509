package macro

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTable(t *testing.T, defs ...string) *Table {
	t.Helper()
	table := NewTable()
	for _, d := range defs {
		m, err := ParseDirective(d)
		require.NoError(t, err, "definition %q", d)
		table.Set(m)
	}
	return table
}

func TestExpand(t *testing.T) {
	t.Parallel()

	defs := []string{
		"TIM_2080_2099 3",
		"DTIM TIM_2080_2099",
		"LIM_IRRIGATION \"lim\"",
		"xstr(s) #s",
		"mkstr(s) xstr(s)",
		"output out",
		"cat(a, b) a ## b",
		"self self + 1",
		"ping pong",
		"pong ping",
		"SPLIT(a,b) [a|b]",
		"EMPTY",
		"NOARGS() 42",
		"F(x) [x]",
		"G F",
		"f(a) a*g",
		"g(a) f(a)",
	}

	testCases := []struct {
		name     string
		in       string
		expected string
	}{
		{name: "object macro chain", in: "DTIM", expected: "3"},
		{name: "string literal untouched", in: `"DTIM" : DTIM,`, expected: `"DTIM" : 3,`},
		{name: "macro producing string", in: `"irrigation" : LIM_IRRIGATION,`, expected: `"irrigation" : "lim",`},
		{name: "stringify raw argument", in: "xstr(output/vegc.bin)", expected: `"output/vegc.bin"`},
		{name: "stringify expanded argument", in: "mkstr(output/vegc.bin)", expected: `"out/vegc.bin"`},
		{name: "stringify collapses whitespace", in: "xstr(  a    b  )", expected: `"a b"`},
		{name: "stringify escapes quotes", in: `xstr("x")`, expected: `"\"x\""`},
		{name: "token pasting", in: "cat(TIM_, 2080_2099)", expected: "3"},
		{name: "pasting with empty argument", in: "cat(, DTIM)", expected: "3"},
		{name: "self reference terminates", in: "self", expected: "self + 1"},
		{name: "mutual reference terminates", in: "ping", expected: "ping"},
		{name: "function macro without call is kept", in: "xstr + 1", expected: "xstr + 1"},
		{name: "nested parentheses in argument", in: "SPLIT((1,2), 3)", expected: "[(1,2)|3]"},
		{name: "empty macro", in: "[EMPTY]", expected: "[]"},
		{name: "zero argument macro", in: "NOARGS()", expected: "42"},
		{name: "numbers are not identifiers", in: "1e-3 DTIM2", expected: "1e-3 DTIM2"},
		{name: "object macro naming a function macro takes following arguments", in: "G(1), G (2)", expected: "[1], [2]"},
		{name: "nested invocation through object macro", in: "G(G(1))", expected: "[[1]]"},
		{name: "rescan continues into the rest of the line", in: "f(2)(9)", expected: "2*9*g"},
		{name: "object macro naming a function macro without call", in: "G + 1", expected: "F + 1"},
	}

	table := newTestTable(t, defs...)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := table.Expand(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestExpandErrors(t *testing.T) {
	t.Parallel()

	table := newTestTable(t, "pair(a, b) a b")

	_, err := table.Expand("pair(1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expects 2 arguments")

	_, err = table.Expand("pair(1, 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unterminated")
	assert.ErrorIs(t, err, ErrUnterminatedArgs)
}

func TestExpandBlowupIsBounded(t *testing.T) {
	t.Parallel()

	// Each level doubles the text; hide sets alone would let it run.
	defs := []string{"L0 x"}
	for i := 1; i <= 24; i++ {
		defs = append(defs, fmt.Sprintf("L%d L%d L%d", i, i-1, i-1))
	}
	table := newTestTable(t, defs...)

	_, err := table.Expand("L24")
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestTableRedefinition(t *testing.T) {
	t.Parallel()

	table := NewTable()
	redefined, err := table.Define("FIRE", "1")
	require.NoError(t, err)
	assert.False(t, redefined)

	redefined, err = table.Define("FIRE", " 1 ")
	require.NoError(t, err)
	assert.False(t, redefined, "identical redefinition must be silent")

	redefined, err = table.Define("FIRE", "2")
	require.NoError(t, err)
	assert.True(t, redefined)

	m, ok := table.Lookup("FIRE")
	require.True(t, ok)
	assert.Equal(t, "2", m.Value())

	_, err = table.Define("2FIRE", "1")
	require.Error(t, err)
}

func TestTableCloneIsIndependent(t *testing.T) {
	t.Parallel()

	base := NewTable()
	_, err := base.Define("WITH_GRIDBASED", "1")
	require.NoError(t, err)

	run := base.Clone()
	_, err = run.Define("RUN_ID_01", "1")
	require.NoError(t, err)
	run.Undefine("WITH_GRIDBASED")

	assert.Equal(t, []string{"WITH_GRIDBASED"}, base.Names())
	assert.Equal(t, []string{"RUN_ID_01"}, run.Names())
}

func TestParseDefine(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in        string
		name      string
		value     string
		funcLike  bool
		expectErr bool
	}{
		{in: "RUN_ID_01", name: "RUN_ID_01", value: "1"},
		{in: "DTIM=TIM_2080_2099", name: "DTIM", value: "TIM_2080_2099"},
		{in: "EMPTY=", name: "EMPTY", value: ""},
		{in: "PATH=a=b", name: "PATH", value: "a=b"},
		{in: "sq(x)=x*x", name: "sq", value: "x*x", funcLike: true},
		{in: "9LIVES", expectErr: true},
		{in: "", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			m, err := ParseDefine(tc.in)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.name, m.Name)
			assert.Equal(t, tc.value, m.Value())
			assert.Equal(t, tc.funcLike, m.FuncLike)
		})
	}
}

func TestParseDirective(t *testing.T) {
	t.Parallel()

	m, err := ParseDirective("mkstr(s) xstr(s)")
	require.NoError(t, err)
	assert.True(t, m.FuncLike)
	assert.Equal(t, []string{"s"}, m.Params)

	m, err = ParseDirective("GROUP (1)")
	require.NoError(t, err)
	assert.False(t, m.FuncLike, "a space before '(' makes an object-like macro")
	assert.Equal(t, "(1)", m.Value())

	_, err = ParseDirective("bad(a, a) a")
	require.Error(t, err)

	_, err = ParseDirective("open(a b")
	require.Error(t, err)

	_, err = ParseDirective("\"str\" 1")
	require.Error(t, err)
}
