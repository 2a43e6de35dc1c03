package loader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"filesig/domain/signature"
)

var ErrMalformedLine = errors.New("loader: malformed line")

// Stats summarizes one load.
type Stats struct {
	Lines   int
	Loaded  int
	Skipped int
}

// ParseLine parses "extension,signature,length".
func ParseLine(line string) (signature.Record, error) {
	first := strings.IndexByte(line, ',')
	if first < 0 {
		return signature.Record{}, fmt.Errorf("%w: missing delimiter: %q", ErrMalformedLine, line)
	}
	second := strings.IndexByte(line[first+1:], ',')
	if second < 0 {
		return signature.Record{}, fmt.Errorf("%w: missing second delimiter: %q", ErrMalformedLine, line)
	}
	second += first + 1

	length, err := strconv.Atoi(strings.TrimSpace(line[second+1:]))
	if err != nil {
		return signature.Record{}, fmt.Errorf("%w: bad length: %q", ErrMalformedLine, line)
	}

	rec := signature.Record{
		Extension: line[:first],
		Signature: line[first+1 : second],
		Length:    length,
	}.Normalize()
	if err := rec.Validate(); err != nil {
		return signature.Record{}, fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}
	return rec, nil
}

// Loader feeds parsed records to a sink in input order. Malformed lines
// are logged and skipped; an error from the sink aborts the load.
type Loader struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{log: log.Named("loader")}
}

func (l *Loader) Load(ctx context.Context, r io.Reader, fn func(signature.Record) error) (Stats, error) {
	var st Stats
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		st.Lines++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := ParseLine(line)
		if err != nil {
			st.Skipped++
			l.log.Warn("invalid line format", zap.Int("line", st.Lines), zap.Error(err))
			continue
		}
		if err := fn(rec); err != nil {
			return st, fmt.Errorf("line %d: %w", st.Lines, err)
		}
		st.Loaded++
	}
	if err := sc.Err(); err != nil {
		return st, fmt.Errorf("scan signatures: %w", err)
	}
	return st, nil
}

func (l *Loader) LoadFile(ctx context.Context, path string, fn func(signature.Record) error) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open signature file: %w", err)
	}
	defer f.Close()

	st, err := l.Load(ctx, f, fn)
	if err != nil {
		return st, err
	}
	l.log.Info("signatures loaded",
		zap.String("path", path),
		zap.Int("loaded", st.Loaded),
		zap.Int("skipped", st.Skipped),
	)
	return st, nil
}
