package signature

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidRecord = errors.New("signature: invalid record")

// Record is one catalog entry. Length is the signature length in hex
// digits and decides how many bytes are read from a checked file.
type Record struct {
	Extension string
	Signature string
	Length    int
}

// Normalize trims whitespace and uppercases the signature.
func (r Record) Normalize() Record {
	return Record{
		Extension: strings.TrimSpace(r.Extension),
		Signature: strings.ToUpper(strings.TrimSpace(r.Signature)),
		Length:    r.Length,
	}
}

func (r Record) Validate() error {
	if r.Extension == "" {
		return fmt.Errorf("%w: empty extension", ErrInvalidRecord)
	}
	if r.Signature == "" {
		return fmt.Errorf("%w: empty signature", ErrInvalidRecord)
	}
	if strings.ContainsRune(r.Extension, ',') || strings.ContainsRune(r.Signature, ',') {
		return fmt.Errorf("%w: delimiter in field", ErrInvalidRecord)
	}
	if r.Length < 0 {
		return fmt.Errorf("%w: negative length %d", ErrInvalidRecord, r.Length)
	}
	return nil
}

// String renders the record in loader line format.
func (r Record) String() string {
	return fmt.Sprintf("%s,%s,%d", r.Extension, r.Signature, r.Length)
}
