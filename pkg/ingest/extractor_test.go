package ingest

import (
	"bytes"
	"fmt"
	"testing"

	"kt-assistant-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"rsc.io/pdf"
)

// buildPDF writes a minimal PDF with one content stream per page and a
// correct xref table.
func buildPDF(pages ...string) []byte {
	var objects []string
	pageCount := len(pages)

	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pageCount),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, content := range pages {
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content)+1, content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractText(t *testing.T) {
	twoPages := buildPDF(
		"BT /F1 12 Tf 72 680 Td (Line two) Tj ET\nBT /F1 12 Tf 72 700 Td (Line one) Tj ET",
		"BT /F1 12 Tf 72 700 Td (Page two) Tj ET",
	)
	kerned := buildPDF("BT /F1 12 Tf 72 700 Td [(Restart) -600 (the worker)] TJ ET")
	leading := buildPDF("BT /F1 12 Tf 14 TL 72 700 Td (Check the queue depth.) Tj T* (Then drain it.) Tj ET")
	scaled := buildPDF("q 2 0 0 2 0 0 cm BT /F1 6 Tf 36 350 Td (Scaled page text) Tj ET Q")

	tests := []struct {
		name     string
		data     []byte
		fileName string
		want     string
		wantOK   bool
	}{
		{"utf8 text", []byte("héllo wörld"), "notes.txt", "héllo wörld", true},
		{"latin1 fallback", []byte{'c', 'a', 'f', 0xe9}, "notes.TXT", "café", true},
		{"blank text", []byte("   \n"), "empty.txt", "", false},
		{"unsupported extension", []byte("a,b"), "data.csv", "", false},
		{"corrupt pdf", []byte("%PDF-1.4 garbage"), "broken.pdf", "", false},
		{"pdf reading order", twoPages, "Runbook.PDF", "Line one\nLine two\n\nPage two", true},
		{"pdf kerned words", kerned, "kerned.pdf", "Restart the worker", true},
		{"pdf next line operator", leading, "leading.pdf", "Check the queue depth.\nThen drain it.", true},
		{"pdf transformed text", scaled, "scaled.pdf", "Scaled page text", true},
	}

	e := NewExtractor(logger.NewNopLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := e.ExtractText(tt.data, tt.fileName)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLayoutText(t *testing.T) {
	runs := []pdf.Text{
		{FontSize: 12, X: 300, Y: 700, W: 30, S: "right"},
		{FontSize: 12, X: 72, Y: 650, W: 30, S: "below"},
		{FontSize: 12, X: 72, Y: 701, W: 30, S: "left"},
	}
	assert.Equal(t, "left right\nbelow", layoutText(runs))
}

func TestSupportedExtension(t *testing.T) {
	assert.True(t, SupportedExtension("a.PDF"))
	assert.True(t, SupportedExtension("b.txt"))
	assert.False(t, SupportedExtension("c.docx"))
}
