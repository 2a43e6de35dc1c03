package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"filesig/domain/signature"
)

const (
	msgMatch    = "File signature matches the expected signature."
	msgMismatch = "File signature does not match the expected signature."
	msgUnknown  = "No matching file signature found in the database."
)

type checker struct {
	cat *signature.Catalog
	log *zap.Logger
}

func newChecker(cat *signature.Catalog, log *zap.Logger) *checker {
	return &checker{cat: cat, log: log}
}

// check prints the verdict for path to w and records it in the check log.
func (c *checker) check(w io.Writer, path string) error {
	c.log.Info("file path entered", zap.String("path", path))

	res, err := c.cat.Check(path)
	switch {
	case errors.Is(err, signature.ErrFileTooSmall):
		// Too short to carry the signature: a mismatch with nothing read.
		c.log.Warn("file shorter than signature", zap.String("path", path))
		res.Status = signature.Mismatch
	case err != nil:
		c.log.Error("check failed", zap.String("path", path), zap.Error(err))
		return err
	}

	c.log.Info("extracted file extension", zap.String("extension", res.Extension))
	fmt.Fprintf(w, "File extension found: %s\n", res.Extension)

	switch res.Status {
	case signature.Unknown:
		c.log.Info("result", zap.String("verdict", msgUnknown))
		fmt.Fprintln(w, msgUnknown)
		return nil
	case signature.Match:
		fmt.Fprintln(w, msgMatch)
		c.log.Info("result", zap.String("verdict", msgMatch), zap.String("signature", res.Signature))
	default:
		fmt.Fprintln(w, msgMismatch)
		c.log.Warn("result", zap.String("verdict", msgMismatch), zap.String("signature", res.Signature))
	}

	fmt.Fprintf(w, "All Associated signatures: %s\n", strings.Join(res.Expected, " "))
	fmt.Fprintf(w, "Current signature: %s\n", res.Signature)
	c.log.Info("associated signatures",
		zap.Strings("expected", res.Expected),
		zap.String("current", res.Signature),
	)
	return nil
}
