package core

// streaming.go reads catalog documents from files and HTTP bodies.
//
// Spreadsheet exports commonly carry a UTF-8 BOM and stray Latin-1 bytes.
// Both are repaired here so the parser only ever sees valid UTF-8.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxCatalogSize bounds how much of a catalog document is read (16MB).
const DefaultMaxCatalogSize = 16 << 20

// ErrCatalogTooLarge is returned when a document exceeds the size limit.
var ErrCatalogTooLarge = errors.New("catalog file too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCatalogText reads at most limit bytes from r and returns the document
// as valid UTF-8 without a leading BOM. Invalid sequences become U+FFFD.
// A limit <= 0 means DefaultMaxCatalogSize.
func ReadCatalogText(r io.Reader, limit int64) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxCatalogSize
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("read catalog: %w", err)
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("%w: more than %d bytes", ErrCatalogTooLarge, limit)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}
