package parser

import (
	"strings"
	"testing"
)

func TestTextParser_PreservesLineStructure(t *testing.T) {
	input := "Weather:\nConditions: clear   \nHigh: 70\t\n\nNotes:\nall good"
	p := &TextParser{}
	out, err := p.Parse(strings.NewReader(input), "report.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Weather:\nConditions: clear\nHigh: 70\n\nNotes:\nall good"
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	out, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty output, got %q", out)
	}
}

func TestForFile_KnownExtensions(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"report.pdf", "*parser.PDFParser"},
		{"report.txt", "*parser.TextParser"},
		{"report.md", "*parser.MarkdownParser"},
		{"report.csv", "*parser.CSVParser"},
		{"report.html", "*parser.HTMLParser"},
		{"report.docx", "*parser.DOCXParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.filename, err)
			continue
		}
		if got := typeName(p); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.filename, tt.want, got)
		}
	}
}

func TestForFile_UnsupportedExtension(t *testing.T) {
	if _, err := ForFile("report.xlsx"); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if IsSupportedExtension("report.xlsx") {
		t.Error("xlsx should not be supported")
	}
	if !IsSupportedExtension("Report.PDF") {
		t.Error("extension check should be case-insensitive")
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *PDFParser:
		return "*parser.PDFParser"
	case *TextParser:
		return "*parser.TextParser"
	case *MarkdownParser:
		return "*parser.MarkdownParser"
	case *CSVParser:
		return "*parser.CSVParser"
	case *HTMLParser:
		return "*parser.HTMLParser"
	case *DOCXParser:
		return "*parser.DOCXParser"
	default:
		return "unknown"
	}
}
