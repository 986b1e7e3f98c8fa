package report

import (
	"bytes"
	"errors"
	"github.com/dop251/goja"
	"github.com/dop251/goja/parser"
	"github.com/joakimcarlsson/couchjs/internal/script"
	"github.com/stretchr/testify/require"
	"testing"
)

func run(t *testing.T, src *script.Source) error {
	t.Helper()
	prg, err := parser.ParseFile(nil, src.Name, src.Text, 0)
	if err != nil {
		return err
	}
	program, err := goja.CompileAST(prg, false)
	if err != nil {
		return err
	}
	_, err = goja.New().RunProgram(program)
	return err
}

func render(t *testing.T, r *Report) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf))
	return buf.String()
}

func TestWrite_BareMessage(t *testing.T) {
	r := &Report{Message: "Error: boom"}
	require.Equal(t, "Error: boom\n", render(t, r))
}

func TestWrite_WithPosition(t *testing.T) {
	r := &Report{
		Message: "ReferenceError: foo is not defined",
		Pos: &Position{
			Resource:   "main.js",
			Line:       3,
			SourceLine: "var x = foo + 1;",
			StartCol:   8,
			EndCol:     11,
		},
	}

	want := "main.js:3: ReferenceError: foo is not defined\n" +
		"var x = foo + 1;\n" +
		"        ^^^\n"
	require.Equal(t, want, render(t, r))
}

func TestWrite_AtLeastOneCaret(t *testing.T) {
	r := &Report{
		Message: "SyntaxError: Unexpected end of input",
		Pos:     &Position{Resource: "a.js", Line: 1, SourceLine: "f(", StartCol: 2, EndCol: 2},
	}
	require.Equal(t, "a.js:1: SyntaxError: Unexpected end of input\nf(\n  ^\n", render(t, r))
}

func TestFromError_SyntaxError(t *testing.T) {
	src := script.FromBytes("bad.js", []byte("var a = 1;\nvar = 2;\n"))

	r := FromError(run(t, src), src)
	require.NotNil(t, r.Pos)
	require.Contains(t, r.Message, "SyntaxError: ")
	require.Equal(t, "bad.js", r.Pos.Resource)
	require.Equal(t, 2, r.Pos.Line)
	require.Equal(t, "var = 2;", r.Pos.SourceLine)
}

func TestFromError_ThrownError(t *testing.T) {
	src := script.FromBytes("throw.js", []byte("var a = 1;\nthrow new Error('boom');\n"))

	r := FromError(run(t, src), src)
	require.Equal(t, "Error: boom", r.Message)
	require.NotNil(t, r.Pos)
	require.Equal(t, "throw.js", r.Pos.Resource)
	require.Equal(t, 2, r.Pos.Line)
	require.Equal(t, "throw new Error('boom');", r.Pos.SourceLine)
}

func TestFromError_ThrownString(t *testing.T) {
	src := script.FromBytes("s.js", []byte("throw 'plain';\n"))

	r := FromError(run(t, src), src)
	require.Equal(t, "plain", r.Message)
	require.NotNil(t, r.Pos)
	require.Equal(t, 1, r.Pos.Line)
}

func TestFromError_InsideFunction(t *testing.T) {
	src := script.FromBytes("fn.js", []byte("function f() {\n  missing();\n}\nf();\n"))

	r := FromError(run(t, src), src)
	require.Contains(t, r.Message, "ReferenceError")
	require.NotNil(t, r.Pos)
	require.Equal(t, 2, r.Pos.Line)
	require.Equal(t, "  missing();", r.Pos.SourceLine)
	require.Greater(t, r.Pos.EndCol, r.Pos.StartCol)
}

func TestFromError_ShebangKeepsFileLines(t *testing.T) {
	src := script.FromBytes("sb.js", []byte("#!/usr/bin/env couchjs\nvar x;\nthrow new Error('late');\n"))

	r := FromError(run(t, src), src)
	require.NotNil(t, r.Pos)
	require.Equal(t, 3, r.Pos.Line)
	require.Equal(t, "throw new Error('late');", r.Pos.SourceLine)
}

func TestFromError_OtherError(t *testing.T) {
	src := script.FromBytes("x.js", nil)

	r := FromError(errors.New("interrupted"), src)
	require.Nil(t, r.Pos)
	require.Equal(t, "interrupted", r.Message)
}

func TestFromError_ThrowingToString(t *testing.T) {
	src := script.FromBytes("ts.js", []byte("throw {toString: function() { throw 1; }};\n"))

	r := FromError(run(t, src), src)
	require.Equal(t, "<string conversion failed>", r.Message)
	require.Nil(t, r.Pos)
	require.Equal(t, "<string conversion failed>\n", render(t, r))
}

func TestFromError_StackOverflow(t *testing.T) {
	src := script.FromBytes("deep.js", []byte("function r() { return r(); }\nr();\n"))
	prg, err := parser.ParseFile(nil, src.Name, src.Text, 0)
	require.NoError(t, err)
	program, err := goja.CompileAST(prg, false)
	require.NoError(t, err)

	vm := goja.New()
	vm.SetMaxCallStackSize(100)
	_, err = vm.RunProgram(program)
	require.Error(t, err)

	r := FromError(err, src)
	require.Contains(t, r.Message, "Maximum call stack size exceeded")
	require.NotNil(t, r.Pos)
	require.Equal(t, "deep.js", r.Pos.Resource)
	require.Equal(t, 1, r.Pos.Line)
}
