package object

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"career-backend/internal/shared/util"
)

// ObjectStore saves and retrieves binary objects by storage key.
type ObjectStore interface {
	// Put writes r at key. An empty contentType is sniffed from the first bytes.
	Put(ctx context.Context, key string, contentType string, r io.Reader) (sizeBytes int64, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// NewKey builds a unique storage key under namespace for fileName.
func NewKey(namespace, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	ns := strings.Trim(strings.TrimSpace(namespace), "/")
	if ns == "" || strings.Contains(ns, "..") {
		return "", fmt.Errorf("invalid namespace %q", namespace)
	}
	return path.Join(ns, randomID()+"_"+name), nil
}

func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
