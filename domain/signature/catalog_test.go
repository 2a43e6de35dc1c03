package signature

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestExtension(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":           "jpg",
		"/tmp/archive.tar.gz": "gz",
		"noext":               "",
		"dir.d/noext":         "",
		"trailing.":           "",
		"spaced.png ":         "png",
	}
	for in, want := range cases {
		assert.Equal(t, want, Extension(in), in)
	}
}

func TestReadSignature(t *testing.T) {
	path := writeFile(t, "a.png", []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a})

	sig, err := ReadSignature(path, 8)
	require.NoError(t, err)
	assert.Equal(t, "89504E47", sig)

	// odd length rounds up to a whole byte
	sig, err = ReadSignature(path, 3)
	require.NoError(t, err)
	assert.Equal(t, "8950", sig)
}

func TestReadSignatureTooSmall(t *testing.T) {
	path := writeFile(t, "tiny.bin", []byte{0x01})
	_, err := ReadSignature(path, 8)
	assert.ErrorIs(t, err, ErrFileTooSmall)
}

func TestReadSignatureMissingFile(t *testing.T) {
	_, err := ReadSignature(filepath.Join(t.TempDir(), "missing"), 2)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCatalogAddLookup(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(Record{Extension: "jpg", Signature: "ffd8ff", Length: 6}))
	require.NoError(t, c.Add(Record{Extension: " jpg", Signature: "FFD8FFE0", Length: 8}))

	sigs, length, ok := c.Lookup("jpg")
	require.True(t, ok)
	assert.Equal(t, []string{"FFD8FF", "FFD8FFE0"}, sigs)
	assert.Equal(t, 6, length)
	assert.Equal(t, 1, c.Len())
}

func TestCatalogAddInvalid(t *testing.T) {
	c := NewCatalog()
	assert.ErrorIs(t, c.Add(Record{Signature: "00"}), ErrInvalidRecord)
	assert.ErrorIs(t, c.Add(Record{Extension: "x"}), ErrInvalidRecord)
	assert.ErrorIs(t, c.Add(Record{Extension: "x", Signature: "00", Length: -1}), ErrInvalidRecord)
	assert.ErrorIs(t, c.Add(Record{Extension: "x,y", Signature: "00", Length: 2}), ErrInvalidRecord)
	assert.Equal(t, 0, c.Len())
}

func TestCatalogCheck(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(Record{Extension: "png", Signature: "89504E47", Length: 8}))
	require.NoError(t, c.Add(Record{Extension: "pdf", Signature: "25504446", Length: 8}))

	good := writeFile(t, "ok.png", []byte{0x89, 0x50, 0x4e, 0x47, 0x00})
	res, err := c.Check(good)
	require.NoError(t, err)
	assert.Equal(t, Match, res.Status)
	assert.Equal(t, "89504E47", res.Signature)
	assert.Equal(t, []string{"89504E47"}, res.Expected)

	bad := writeFile(t, "fake.pdf", []byte{0x89, 0x50, 0x4e, 0x47, 0x00})
	res, err = c.Check(bad)
	require.NoError(t, err)
	assert.Equal(t, Mismatch, res.Status)
	assert.Equal(t, "pdf", res.Extension)

	unknown := writeFile(t, "x.zzz", []byte{0x00})
	res, err = c.Check(unknown)
	require.NoError(t, err)
	assert.Equal(t, Unknown, res.Status)
	assert.Empty(t, res.Expected)
}

func TestCatalogCheckShortFile(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(Record{Extension: "png", Signature: "89504E47", Length: 8}))
	path := writeFile(t, "short.png", []byte{0x89})
	res, err := c.Check(path)
	assert.ErrorIs(t, err, ErrFileTooSmall)
	assert.Equal(t, Unknown, res.Status)
}

func TestCatalogRemoveAndRecords(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(Record{Extension: "png", Signature: "X1", Length: 4}))
	require.NoError(t, c.Add(Record{Extension: "jpg", Signature: "X2", Length: 4}))
	require.NoError(t, c.Add(Record{Extension: "gif", Signature: "X3", Length: 4}))

	assert.True(t, c.Remove("x2"))
	assert.False(t, c.Remove("nope"))

	recs := c.Records()
	assert.ElementsMatch(t, []Record{
		{Extension: "png", Signature: "X1", Length: 4},
		{Extension: "gif", Signature: "X3", Length: 4},
	}, recs)

	var buf bytes.Buffer
	require.NoError(t, c.Print(&buf))
	assert.Contains(t, buf.String(), "png(BLACK)")

	assert.Equal(t, 2, c.Reset())
	assert.Equal(t, 0, c.Len())
}

func TestCatalogLocateAndRemoveExtension(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Add(Record{Extension: "a", Signature: "Z", Length: 1}))
	require.NoError(t, c.Add(Record{Extension: "b", Signature: "A", Length: 1}))
	require.NoError(t, c.Add(Record{Extension: "c", Signature: "M", Length: 1}))

	ext, ok := c.Locate("m")
	require.True(t, ok)
	assert.Equal(t, "c", ext)
	_, ok = c.Locate("Z")
	assert.False(t, ok)

	assert.True(t, c.RemoveExtension("a"))
	assert.False(t, c.RemoveExtension("a"))
	_, _, ok = c.Lookup("a")
	assert.False(t, ok)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "MATCH", Match.String())
	assert.Equal(t, "MISMATCH", Mismatch.String())
	assert.Equal(t, "UNKNOWN", Unknown.String())
}
