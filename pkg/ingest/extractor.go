package ingest

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"kt-assistant-be/internal/pkg/logger"

	"golang.org/x/text/encoding/charmap"
	"rsc.io/pdf"
)

const module = "Ingest"

var extraBlankLines = regexp.MustCompile(`\n{3,}`)

// Extractor turns uploaded documents into plain text.
type Extractor struct {
	logger logger.ILogger
}

func NewExtractor(log logger.ILogger) *Extractor {
	return &Extractor{logger: log}
}

func SupportedExtension(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt", ".pdf":
		return true
	}
	return false
}

// ExtractText returns the document text and true, or ("", false) when the
// type is unsupported, the file is unreadable or it holds no text.
func (e *Extractor) ExtractText(fileBytes []byte, fileName string) (string, bool) {
	var (
		text string
		err  error
	)

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt":
		text = decodeText(fileBytes)
	case ".pdf":
		text, err = extractPDF(fileBytes)
	default:
		e.logger.Warn(module, "Unsupported document type", map[string]interface{}{"file_name": fileName})
		return "", false
	}

	if err != nil {
		e.logger.Error(module, "Failed to extract document text", map[string]interface{}{
			"file_name": fileName,
			"error":     err,
		})
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// decodeText reads UTF-8 and falls back to Latin-1, which never fails.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(bytes.ToValidUTF8(b, []byte("�")))
	}
	return string(decoded)
}

func extractPDF(b []byte) (text string, err error) {
	// rsc.io/pdf panics on malformed objects
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pages = append(pages, layoutText(pageRuns(page)))
	}

	return strings.TrimSpace(extraBlankLines.ReplaceAllString(strings.Join(pages, "\n\n"), "\n\n")), nil
}

type line struct {
	y    float64
	runs []pdf.Text
}

// layoutText rebuilds reading order: runs sharing a baseline form a line,
// lines go top to bottom and runs left to right.
func layoutText(runs []pdf.Text) string {
	var lines []*line
	for _, r := range runs {
		if strings.TrimSpace(r.S) == "" {
			continue
		}
		tolerance := math.Max(r.FontSize*0.3, 1)
		var target *line
		for _, l := range lines {
			if math.Abs(l.y-r.Y) <= tolerance {
				target = l
				break
			}
		}
		if target == nil {
			target = &line{y: r.Y}
			lines = append(lines, target)
		}
		target.runs = append(target.runs, r)
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	out := make([]string, 0, len(lines))
	for _, l := range lines {
		sort.SliceStable(l.runs, func(i, j int) bool { return l.runs[i].X < l.runs[j].X })

		var sb strings.Builder
		for i, r := range l.runs {
			if i > 0 {
				prev := l.runs[i-1]
				gap := r.X - (prev.X + prev.W)
				if gap > math.Max(r.FontSize*0.25, 1) && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(r.S, " ") {
					sb.WriteByte(' ')
				}
			}
			sb.WriteString(r.S)
		}
		out = append(out, strings.TrimRight(sb.String(), " "))
	}
	return strings.Join(out, "\n")
}
