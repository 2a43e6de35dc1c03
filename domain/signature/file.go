package signature

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrFileTooSmall = errors.New("signature: file is smaller than the requested length")

// Extension returns the text after the last dot of the base name, or ""
// when the name has no dot.
func Extension(path string) string {
	base := filepath.Base(path)
	i := strings.LastIndexByte(base, '.')
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(base[i+1:])
}

// ReadSignature reads enough leading bytes to cover hexLen hex digits and
// returns them as uppercase hex. Odd lengths round up to a whole byte.
func ReadSignature(path string, hexLen int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	n := (hexLen + 1) / 2
	st, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Size() < int64(n) {
		return "", fmt.Errorf("%s: %w", path, ErrFileTooSmall)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(f, buf); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
