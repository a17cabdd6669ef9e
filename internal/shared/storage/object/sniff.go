package object

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// Sniff fills in contentType from the first 512 bytes of r when it is empty.
// The returned reader yields the full original stream.
func Sniff(contentType string, r io.Reader) (string, io.Reader, error) {
	if contentType != "" {
		return contentType, r, nil
	}
	var head [512]byte
	n, err := io.ReadFull(r, head[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	return http.DetectContentType(head[:n]), io.MultiReader(bytes.NewReader(head[:n]), r), nil
}
