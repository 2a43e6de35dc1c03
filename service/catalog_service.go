package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"filesig/domain/signature"
	"filesig/infra/loader"
	"filesig/infra/sequence"
	entrywal "filesig/infra/wal/entry"
	exitwal "filesig/infra/wal/exit"
)

var ErrNoJournal = errors.New("service: entry wal is required")

/*
CatalogService owns the catalog tree. The tree itself does no locking, so
every read and write goes through mu.

Write path: validate -> sequence -> entry WAL -> tree.
Check path: tree lookup + file read -> outbox (NEW).
*/
type CatalogService struct {
	mu sync.Mutex
	// snapMu orders snapshots so an older one never replaces a newer one.
	snapMu  sync.Mutex
	cfg     Config
	catalog *signature.Catalog
	seq     *sequence.Sequencer
	wal     *entrywal.WAL
	outbox  *exitwal.ExitWAL
	loader  *loader.Loader
	log     *zap.Logger
}

// NewCatalogService wires the service. outbox may be nil, in which case
// check results are not published.
func NewCatalogService(
	cfg Config,
	w *entrywal.WAL,
	outbox *exitwal.ExitWAL,
	log *zap.Logger,
) (*CatalogService, error) {
	if w == nil {
		return nil, ErrNoJournal
	}
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("catalog")

	return &CatalogService{
		cfg:     cfg.withDefaults(),
		catalog: signature.NewCatalog(),
		seq:     sequence.New(0),
		wal:     w,
		outbox:  outbox,
		loader:  loader.New(log),
		log:     log,
	}, nil
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// AddSignature journals and inserts one record. It returns the record's
// sequence number.
func (s *CatalogService) AddSignature(rec signature.Record) (uint64, error) {
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		catalogMutations.WithLabelValues("insert", "invalid").Inc()
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.seq.Next()
	if err := s.wal.Append(entrywal.NewRecord(entrywal.RecordInsert, seq, []byte(rec.String()))); err != nil {
		catalogMutations.WithLabelValues("insert", "error").Inc()
		return 0, err
	}
	if err := s.catalog.Add(rec); err != nil {
		return 0, err
	}

	catalogMutations.WithLabelValues("insert", "ok").Inc()
	catalogExtensions.Set(float64(s.catalog.Len()))
	return seq, nil
}

// RemoveSignature removes the extension reached by the first-signature
// descent for sig. The journal records which extension went away so
// replay does not depend on tree shape.
func (s *CatalogService) RemoveSignature(sig string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ext, ok := s.catalog.Locate(sig)
	if !ok {
		s.log.Info("signature not found", zap.String("signature", sig))
		catalogMutations.WithLabelValues("remove", "not_found").Inc()
		return "", false, nil
	}

	seq := s.seq.Next()
	payload := signature.Record{Extension: ext, Signature: sig}.Normalize().String()
	if err := s.wal.Append(entrywal.NewRecord(entrywal.RecordRemove, seq, []byte(payload))); err != nil {
		catalogMutations.WithLabelValues("remove", "error").Inc()
		return "", false, err
	}
	if !s.catalog.Remove(sig) {
		// Locate and Remove run the same descent on the same tree.
		return "", false, fmt.Errorf("remove %q: located %q but remove missed", sig, ext)
	}

	s.log.Info("extension removed", zap.String("signature", sig), zap.String("extension", ext), zap.Uint64("seq", seq))
	catalogMutations.WithLabelValues("remove", "ok").Inc()
	catalogExtensions.Set(float64(s.catalog.Len()))
	return ext, true, nil
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

func (s *CatalogService) Lookup(ext string) ([]string, int, bool) {
	s.mu.Lock()
	sigs, length, ok := s.catalog.Lookup(ext)
	s.mu.Unlock()

	if ok {
		catalogLookups.WithLabelValues("hit").Inc()
	} else {
		catalogLookups.WithLabelValues("miss").Inc()
	}
	return sigs, length, ok
}

// CheckFile compares the file at path with the catalog and queues the
// result for publication.
func (s *CatalogService) CheckFile(ctx context.Context, path string) (signature.Result, error) {
	if err := ctx.Err(); err != nil {
		return signature.Result{}, err
	}

	s.mu.Lock()
	res, err := s.catalog.Check(path)
	s.mu.Unlock()
	if err != nil {
		fileChecks.WithLabelValues("error").Inc()
		return res, err
	}

	fileChecks.WithLabelValues(res.Status.String()).Inc()
	s.log.Info("file checked",
		zap.String("path", res.Path),
		zap.String("extension", res.Extension),
		zap.String("signature", res.Signature),
		zap.Stringer("status", res.Status),
	)

	if s.outbox == nil {
		return res, nil
	}
	seq := s.seq.Next()
	payload, err := newCheckEvent(seq, res).Marshal()
	if err != nil {
		return res, err
	}
	if err := s.outbox.PutNew(seq, payload); err != nil {
		return res, fmt.Errorf("queue check result: %w", err)
	}
	return res, nil
}

func (s *CatalogService) Dump(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Print(w)
}

func (s *CatalogService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Len()
}

// Seq returns the last sequence number issued.
func (s *CatalogService) Seq() uint64 {
	return s.seq.Current()
}
