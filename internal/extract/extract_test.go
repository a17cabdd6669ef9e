package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"career-backend/internal/shared/storage/object/local"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Jane Smith</w:t></w:r></w:p>
<w:p><w:r><w:t>Senior Engineer at Acme</w:t></w:r></w:p>
</w:body>
</w:document>`

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextFromBytes_Docx(t *testing.T) {
	data := buildZip(t, map[string]string{"word/document.xml": documentXML})

	got, err := ExtractTextFromBytes(context.Background(), data, mimeDOCX, "cv.docx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.HasPrefix(got, "Jane Smith\n") || !strings.HasSuffix(got, "Senior Engineer at Acme") {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestExtractTextFromBytes_ZipDocxNormalizes(t *testing.T) {
	data := buildZip(t, map[string]string{"word/document.xml": documentXML})

	if _, err := ExtractTextFromBytes(context.Background(), data, "application/zip", "cv.docx"); err != nil {
		t.Fatalf("expected docx to extract from zip mime, got error: %v", err)
	}
}

func TestExtractTextFromBytes_RealZipRejected(t *testing.T) {
	data := buildZip(t, map[string]string{"notes.txt": "hello"})

	_, err := ExtractTextFromBytes(context.Background(), data, "application/zip", "notes.zip")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if !strings.Contains(err.Error(), "unsupported mime type: application/zip") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractTextFromBytes_EmptyDocument(t *testing.T) {
	data := buildZip(t, map[string]string{"word/document.xml": `<w:document xmlns:w="x"><w:body><w:p></w:p><w:p/></w:body></w:document>`})

	if _, err := ExtractTextFromBytes(context.Background(), data, mimeDOCX, "cv.docx"); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestTidy(t *testing.T) {
	in := "  Jane Smith  \r\n\n\n\nSkills:\x00 Go\t\nSQL\n\n"
	if got := tidy(in); got != "Jane Smith\n\nSkills: Go\nSQL" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestExtractTextCachesByContent(t *testing.T) {
	ctx := context.Background()
	store := local.New(t.TempDir())
	data := buildZip(t, map[string]string{"word/document.xml": documentXML})

	text, err := ExtractText(ctx, store, data, mimeDOCX, "cv.docx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	rc, err := store.Open(ctx, CacheKey(data))
	if err != nil {
		t.Fatalf("open cached copy: %v", err)
	}
	stored, _ := io.ReadAll(rc)
	rc.Close()
	if string(stored) != text {
		t.Fatalf("cached copy %q does not match %q", stored, text)
	}

	if _, err := store.Put(ctx, CacheKey(data), "text/plain", strings.NewReader("cached text")); err != nil {
		t.Fatalf("put: %v", err)
	}
	again, err := ExtractText(ctx, store, data, mimeDOCX, "renamed.docx")
	if err != nil || again != "cached text" {
		t.Fatalf("expected the cached copy to be reused, got %q, %v", again, err)
	}
}

func TestExtractTextHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ExtractTextFromBytes(ctx, []byte("x"), mimePDF, "cv.pdf"); err == nil {
		t.Fatal("expected context error")
	}
}
