package sources

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/ledongthuc/pdf"
)

// pdfExtractor is one text-extraction strategy. Strategies differ in what
// they can read: the structured reader handles well-formed files, the stream
// scanner salvages text from files the reader chokes on.
type pdfExtractor func(path string) (string, error)

var pdfExtractors = []pdfExtractor{extractStructured, extractStreams}

// ExtractPDFText runs every extractor and keeps the longest non-empty text.
// Gamebook PDFs vary enough across seasons that no single method reads them
// all.
func ExtractPDFText(path string) (string, error) {
	best := ""
	var lastErr error
	for _, ex := range pdfExtractors {
		text, err := ex(path)
		if err != nil {
			lastErr = err
			continue
		}
		if len(text) > len(best) {
			best = text
		}
	}
	if best == "" {
		if lastErr != nil {
			return "", fmt.Errorf("failed to extract PDF text: %w", lastErr)
		}
		return "", fmt.Errorf("PDF %s yielded no text", path)
	}
	return best, nil
}

// extractStructured uses the pdf reader's plain-text walk.
func extractStructured(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	streamRe  = regexp.MustCompile(`(?s)stream\r?\n(.*?)endstream`)
	textOpRe  = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)
	arrayOpRe = regexp.MustCompile(`\[((?:[^\[\]\\]|\\.)*)\]\s*TJ`)
	parenRe   = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)`)
)

// extractStreams decompresses content streams directly and pulls the
// arguments of Tj/TJ text-show operators. Cruder than the structured walk,
// but immune to cross-reference damage.
func extractStreams(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	for _, m := range streamRe.FindAllSubmatch(raw, -1) {
		content := m[1]
		if zr, err := zlib.NewReader(bytes.NewReader(content)); err == nil {
			if inflated, err := io.ReadAll(zr); err == nil {
				content = inflated
			}
			zr.Close()
		}
		for _, t := range textOpRe.FindAllSubmatch(content, -1) {
			out.Write(unescapePDFString(t[1]))
			out.WriteByte(' ')
		}
		for _, arr := range arrayOpRe.FindAllSubmatch(content, -1) {
			for _, t := range parenRe.FindAllSubmatch(arr[1], -1) {
				out.Write(unescapePDFString(t[1]))
			}
			out.WriteByte(' ')
		}
	}
	return out.String(), nil
}

func unescapePDFString(s []byte) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			out = append(out, s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		default:
			out = append(out, s[i])
		}
	}
	return out
}
