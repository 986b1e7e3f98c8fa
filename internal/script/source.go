package script

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrRead is wrapped by every error Load returns.
var ErrRead = errors.New("error reading script file")

// Source is a script loaded from disk, ready to be compiled.
type Source struct {
	// Name is the path as given on the command line. It is used as the
	// resource name in error reports.
	Name string
	// Text is the source handed to the compiler, shebang removed.
	Text string
	// LineOffset is the number of leading file lines not present in Text.
	LineOffset int

	lines []string
}

// Load reads the script at path. A leading "#!" line is dropped up to and
// including its newline.
func Load(path string) (*Source, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return FromBytes(path, content), nil
}

// FromBytes builds a Source from content already in memory.
func FromBytes(name string, content []byte) *Source {
	src := &Source{
		Name:  name,
		lines: splitLines(string(content)),
	}

	body := content
	if bytes.HasPrefix(body, []byte("#!")) {
		if i := bytes.IndexByte(body, '\n'); i >= 0 {
			body = body[i+1:]
		} else {
			body = nil
		}
		src.LineOffset = 1
	}
	src.Text = string(body)

	return src
}

// FileLine maps a 1-based line of Text to the matching line of the file.
func (s *Source) FileLine(compiledLine int) int {
	return compiledLine + s.LineOffset
}

// Line returns the 1-based file line n without its terminator.
func (s *Source) Line(n int) (string, bool) {
	if n < 1 || n > len(s.lines) {
		return "", false
	}
	return s.lines[n-1], true
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
