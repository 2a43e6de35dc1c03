package signature

import (
	"fmt"
	"io"
	"slices"

	"filesig/domain/rbtree"
)

type Status uint8

const (
	Unknown Status = iota
	Match
	Mismatch
)

func (s Status) String() string {
	switch s {
	case Match:
		return "MATCH"
	case Mismatch:
		return "MISMATCH"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome of checking one file.
type Result struct {
	Path      string
	Extension string
	Signature string
	Expected  []string
	Status    Status
}

// Catalog indexes signatures by extension. Not safe for concurrent use.
type Catalog struct {
	tree *rbtree.Tree[string]
}

func NewCatalog() *Catalog {
	return &Catalog{tree: rbtree.New[string]()}
}

func (c *Catalog) Len() int { return c.tree.Len() }

// Add merges rec into the catalog. The length of the first record seen for
// an extension is kept.
func (c *Catalog) Add(rec Record) error {
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return err
	}
	c.tree.Insert(rec.Signature, rec.Extension, rec.Length)
	return nil
}

// Remove drops the extension whose first signature is sig.
func (c *Catalog) Remove(sig string) bool {
	return c.tree.Remove(Record{Signature: sig}.Normalize().Signature)
}

// Locate returns the extension Remove(sig) would drop, without dropping it.
func (c *Catalog) Locate(sig string) (string, bool) {
	return c.tree.Locate(Record{Signature: sig}.Normalize().Signature)
}

// RemoveExtension drops ext and all of its signatures.
func (c *Catalog) RemoveExtension(ext string) bool {
	return c.tree.Delete(ext)
}

func (c *Catalog) Lookup(ext string) ([]string, int, bool) {
	return c.tree.Search(ext)
}

// Check reads the file's leading bytes and compares them with every
// signature catalogued for its extension.
func (c *Catalog) Check(path string) (Result, error) {
	res := Result{Path: path, Extension: Extension(path)}

	expected, length, ok := c.tree.Search(res.Extension)
	if !ok {
		return res, nil
	}
	res.Expected = expected

	sig, err := ReadSignature(path, length)
	if err != nil {
		return res, err
	}
	res.Signature = sig
	if slices.Contains(expected, sig) {
		res.Status = Match
	} else {
		res.Status = Mismatch
	}
	return res, nil
}

// Records flattens the catalog into records, one per stored signature.
// Extensions come out in tree pre-order, signatures in insertion order.
func (c *Catalog) Records() []Record {
	var out []Record
	for info := range c.tree.Walk() {
		for _, sig := range info.Values {
			out = append(out, Record{Extension: info.Key, Signature: sig, Length: info.Attribute})
		}
	}
	return out
}

func (c *Catalog) Print(w io.Writer) error {
	if err := c.tree.Print(w); err != nil {
		return fmt.Errorf("print catalog: %w", err)
	}
	return nil
}

// Reset drops every entry and returns how many extensions were released.
func (c *Catalog) Reset() int {
	return c.tree.Destroy()
}
