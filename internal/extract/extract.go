// Package extract turns uploaded CV files (PDF or DOCX) into plain text for
// parseCvText.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"career-backend/internal/shared/storage/object"
	"career-backend/internal/shared/telemetry"
	"career-backend/internal/shared/util"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZip  = "application/zip"

	cacheNamespace = "extracted"
	docxBody       = "word/document.xml"
)

var (
	// ErrUnsupportedType is returned for anything other than PDF or DOCX.
	ErrUnsupportedType = errors.New("unsupported mime type")
	// ErrNoText is returned when a file parses but holds no text, e.g. a scanned PDF.
	ErrNoText = errors.New("no text found in document")
)

// CacheKey is the storage key of the extracted text for a file's contents.
func CacheKey(data []byte) string {
	return path.Join(cacheNamespace, util.ContentHash(string(data))+".txt")
}

// ExtractText returns the text of data, reusing the copy cached in store under
// CacheKey when the same file was extracted before. A fresh extraction is
// written back to the cache; a failed cache write is logged, not returned.
func ExtractText(ctx context.Context, store object.ObjectStore, data []byte, mimeType string, fileName string) (string, error) {
	key := CacheKey(data)
	if text, ok := readCached(ctx, store, key); ok {
		telemetry.Info("extract.cache_hit", map[string]any{"key": key, "fileName": fileName})
		return text, nil
	}

	text, err := ExtractTextFromBytes(ctx, data, mimeType, fileName)
	if err != nil {
		return "", err
	}
	if _, err := store.Put(ctx, key, "text/plain; charset=utf-8", strings.NewReader(text)); err != nil {
		telemetry.Warn("extract.cache_write_failed", map[string]any{"key": key, "error": err.Error()})
	}
	return text, nil
}

func readCached(ctx context.Context, store object.ObjectStore, key string) (string, bool) {
	rc, err := store.Open(ctx, key)
	if err != nil {
		return "", false
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	return string(raw), true
}

// ExtractTextFromBytes extracts and tidies the text of an in-memory file.
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var (
		text string
		err  error
	)
	switch kind := detectType(mimeType, fileName, data); kind {
	case mimePDF:
		text, err = extractPDF(data)
	case mimeDOCX:
		text, err = extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, kind)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", fileName, err)
	}
	text = tidy(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	doc := findZipEntry(zr, docxBody)
	if doc == nil {
		return "", errors.New("document.xml not found")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return docxText(rc)
}

// docxText keeps run text, ending a line at each paragraph, break and tab stop.
func docxText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var b strings.Builder
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return b.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			if t.Name.Local == "tab" {
				b.WriteByte(' ')
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				b.WriteByte('\n')
			}
		}
	}
}

func findZipEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == name {
			return f
		}
	}
	return nil
}

// detectType resolves the declared mime type. Browsers often send DOCX files
// as application/zip, so zips are checked for a Word body or a .docx name.
func detectType(mimeType, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean != mimeZip {
		return clean
	}
	if zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data))); err == nil && findZipEntry(zr, docxBody) != nil {
		return mimeDOCX
	}
	if strings.EqualFold(filepath.Ext(fileName), ".docx") {
		return mimeDOCX
	}
	return clean
}

var (
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// tidy drops NUL bytes, trailing spaces and runs of blank lines.
func tidy(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = trailingSpace.ReplaceAllString(text, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
