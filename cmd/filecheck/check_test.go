package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"filesig/domain/signature"
)

func newTestChecker(t *testing.T) (*checker, *observer.ObservedLogs) {
	t.Helper()
	cat := signature.NewCatalog()
	for _, rec := range []signature.Record{
		{Extension: "png", Signature: "89504E47", Length: 8},
		{Extension: "jpg", Signature: "FFD8FF", Length: 6},
		{Extension: "jpg", Signature: "FFD8FFE0", Length: 6},
	} {
		require.NoError(t, cat.Add(rec))
	}
	core, logs := observer.New(zap.InfoLevel)
	return newChecker(cat, zap.New(core)), logs
}

func TestCheckMatch(t *testing.T) {
	c, logs := newTestChecker(t)
	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D}, 0o644))

	var out bytes.Buffer
	require.NoError(t, c.check(&out, path))

	assert.Equal(t, "File extension found: png\n"+
		msgMatch+"\n"+
		"All Associated signatures: 89504E47\n"+
		"Current signature: 89504E47\n", out.String())
	assert.Equal(t, 1, logs.FilterField(zap.String("path", path)).Len())
	assert.Equal(t, 1, logs.FilterField(zap.String("verdict", msgMatch)).Len())
}

func TestCheckMismatch(t *testing.T) {
	c, logs := newTestChecker(t)
	path := filepath.Join(t.TempDir(), "b.jpg")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x11, 0x22}, 0o644))

	var out bytes.Buffer
	require.NoError(t, c.check(&out, path))

	assert.Contains(t, out.String(), msgMismatch)
	assert.Contains(t, out.String(), "All Associated signatures: FFD8FF FFD8FFE0\n")
	assert.Contains(t, out.String(), "Current signature: 001122\n")
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestCheckShortFileIsMismatch(t *testing.T) {
	c, logs := newTestChecker(t)
	path := filepath.Join(t.TempDir(), "short.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 0x50}, 0o644))

	var out bytes.Buffer
	require.NoError(t, c.check(&out, path))

	assert.Equal(t, "File extension found: png\n"+
		msgMismatch+"\n"+
		"All Associated signatures: 89504E47\n"+
		"Current signature: \n", out.String())
	assert.Equal(t, 1, logs.FilterMessage("file shorter than signature").Len())
	assert.Equal(t, 0, logs.FilterMessage("check failed").Len())
}

func TestCheckUnknown(t *testing.T) {
	c, _ := newTestChecker(t)

	var out bytes.Buffer
	require.NoError(t, c.check(&out, "notes.txt"))
	assert.Equal(t, "File extension found: txt\n"+msgUnknown+"\n", out.String())
}

func TestCheckUnreadable(t *testing.T) {
	c, logs := newTestChecker(t)

	var out bytes.Buffer
	err := c.check(&out, filepath.Join(t.TempDir(), "gone.png"))
	assert.Error(t, err)
	assert.Empty(t, out.String())
	assert.Equal(t, 1, logs.FilterMessage("check failed").Len())
}

func TestRunWithPathArgument(t *testing.T) {
	dir := t.TempDir()
	sigs := filepath.Join(dir, "FileSignature.txt")
	require.NoError(t, os.WriteFile(sigs, []byte("png,89504E47,8\n"), 0o644))
	img := filepath.Join(dir, "a.png")
	require.NoError(t, os.WriteFile(img, []byte{0x89, 0x50, 0x4E, 0x47}, 0o644))
	logFile := filepath.Join(dir, "log.txt")

	require.NoError(t, run([]string{"filecheck", "--signatures", sigs, "--log-file", logFile, img}))

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), msgMatch)
	assert.Contains(t, string(data), `"service":"filecheck"`)
}

func TestRunMissingSignatureFile(t *testing.T) {
	dir := t.TempDir()
	err := run([]string{"filecheck", "--signatures", filepath.Join(dir, "none.txt"), "--log-file", filepath.Join(dir, "log.txt"), "x.png"})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
