package parser

import (
	"bufio"
	"io"
	"strings"
)

// TextParser handles plain text files. Line structure is preserved; the
// section splitter downstream depends on headers staying at line starts.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, _ string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var sb strings.Builder
	for scanner.Scan() {
		sb.WriteString(strings.TrimRight(scanner.Text(), " \t"))
		sb.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
