package report

import (
	"bufio"
	"errors"
	"fmt"
	"github.com/dop251/goja"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/parser"
	"github.com/joakimcarlsson/couchjs/internal/script"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Report is a script failure ready to be shown to the user.
type Report struct {
	Message string
	// Pos is nil when the engine gave no location for the failure.
	Pos *Position
}

// Position locates a failure in the script file.
type Position struct {
	Resource   string
	Line       int
	SourceLine string
	// StartCol and EndCol are 0-based byte columns in SourceLine.
	StartCol int
	EndCol   int
}

// conversionFailed stands in for a thrown value whose toString throws.
const conversionFailed = "<string conversion failed>"

// thrown is implemented by *goja.Exception and the errors that embed it,
// such as stack overflows.
type thrown interface {
	error
	Value() goja.Value
	String() string
}

// stack frames as printed by goja: "\tat [fn (]file:line:col(pc)[)]"
var frameRe = regexp.MustCompile(`^\tat (?:.*? \()?(.+):(\d+):(\d+)\(\d+\)\)?$`)

// FromError turns a compilation or execution error into a Report.
func FromError(err error, src *script.Source) *Report {
	var (
		syntaxErrs parser.ErrorList
		syntaxErr  *goja.CompilerSyntaxError
		refErr     *goja.CompilerReferenceError
		exception  thrown
	)

	switch {
	case errors.As(err, &syntaxErrs) && len(syntaxErrs) > 0:
		first := syntaxErrs[0]
		return &Report{
			Message: "SyntaxError: " + first.Message,
			Pos:     locate(src, first.Position),
		}
	case errors.As(err, &syntaxErr):
		return fromCompilerError("SyntaxError", &syntaxErr.CompilerError, src)
	case errors.As(err, &refErr):
		return fromCompilerError("ReferenceError", &refErr.CompilerError, src)
	case errors.As(err, &exception):
		return fromException(exception, src)
	default:
		return &Report{Message: err.Error()}
	}
}

func fromCompilerError(kind string, ce *goja.CompilerError, src *script.Source) *Report {
	rep := &Report{Message: kind + ": " + ce.Message}
	if ce.File != nil {
		rep.Pos = locate(src, ce.File.Position(ce.Offset))
	}
	return rep
}

func fromException(ex thrown, src *script.Source) *Report {
	rep := &Report{Message: conversionFailed}
	if v := ex.Value(); v != nil {
		if msg, ok := safeString(v.String); ok {
			rep.Message = msg
		}
	} else if msg, ok := safeString(ex.Error); ok {
		rep.Message = msg
	}

	// The trace starts with the thrown value, so it fails the same way.
	trace, ok := safeString(ex.String)
	if !ok {
		return rep
	}

	var fallback *file.Position
	for _, line := range strings.Split(trace, "\n") {
		m := frameRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(m[2])
		col, _ := strconv.Atoi(m[3])
		pos := file.Position{Filename: m[1], Line: lineNo, Column: col}
		if pos.Filename == src.Name {
			rep.Pos = locate(src, pos)
			return rep
		}
		if fallback == nil {
			fallback = &pos
		}
	}
	if fallback != nil {
		rep.Pos = locate(src, *fallback)
	}
	return rep
}

// safeString calls a conversion that may run script code outside the
// runtime, where a throw surfaces as a Go panic.
func safeString(conv func() string) (s string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s, ok = "", false
		}
	}()
	return conv(), true
}

func locate(src *script.Source, pos file.Position) *Position {
	if pos.Line <= 0 {
		return nil
	}

	resource := pos.Filename
	if resource == "" {
		resource = src.Name
	}
	p := &Position{Resource: resource, Line: pos.Line}

	// Only lines of our own script can be mapped back to the file.
	if resource == src.Name {
		p.Line = src.FileLine(pos.Line)
		p.SourceLine, _ = src.Line(p.Line)
	}

	p.StartCol = pos.Column - 1
	if p.StartCol < 0 {
		p.StartCol = 0
	}
	if p.StartCol > len(p.SourceLine) {
		p.StartCol = len(p.SourceLine)
	}
	p.EndCol = p.StartCol + tokenLen(p.SourceLine[p.StartCol:])
	return p
}

func tokenLen(s string) int {
	n := 0
	for n < len(s) && isWordByte(s[n]) {
		n++
	}
	if n == 0 {
		return 1
	}
	return n
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// Write prints the report: the bare message when there is no position,
// otherwise "resource:line: message", the source line and a caret underline.
func (r *Report) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if r.Pos == nil {
		fmt.Fprintf(bw, "%s\n", r.Message)
		return bw.Flush()
	}

	fmt.Fprintf(bw, "%s:%d: %s\n", r.Pos.Resource, r.Pos.Line, r.Message)
	fmt.Fprintf(bw, "%s\n", r.Pos.SourceLine)

	width := r.Pos.EndCol - r.Pos.StartCol
	if width < 1 {
		width = 1
	}
	fmt.Fprintf(bw, "%s%s\n", strings.Repeat(" ", r.Pos.StartCol), strings.Repeat("^", width))
	return bw.Flush()
}
