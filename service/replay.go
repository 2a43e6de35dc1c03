package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"filesig/domain/signature"
	"filesig/infra/loader"
	entrywal "filesig/infra/wal/entry"
	"filesig/snapshot"
)

/*
Bootstrap rebuilds the catalog before the service takes traffic.

 1. snapshot present  -> load its records at its sequence
    snapshot missing  -> seed from the signature file (if configured)
 2. replay entry WAL records newer than the base sequence
 3. resume sequencing after the highest number seen anywhere,
    outbox included, so new check events never reuse a key
*/
func (s *CatalogService) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := s.loadBase(ctx)
	if err != nil {
		return err
	}

	var replayed int
	lastSeq, err := entrywal.Replay(s.wal.Dir(), base, func(rec *entrywal.Record) error {
		if err := s.apply(rec); err != nil {
			return fmt.Errorf("seq %d: %w", rec.Seq, err)
		}
		replayed++
		return nil
	})
	if err != nil {
		return fmt.Errorf("replay entry wal: %w", err)
	}
	s.seq.Advance(lastSeq)

	if s.outbox != nil {
		outSeq, err := s.outbox.LastSeq()
		if err != nil {
			return fmt.Errorf("outbox last seq: %w", err)
		}
		s.seq.Advance(outSeq)
	}

	catalogExtensions.Set(float64(s.catalog.Len()))
	s.log.Info("catalog ready",
		zap.Uint64("base_seq", base),
		zap.Int("replayed", replayed),
		zap.Uint64("seq", s.seq.Current()),
		zap.Int("extensions", s.catalog.Len()),
	)
	return nil
}

func (s *CatalogService) loadBase(ctx context.Context) (uint64, error) {
	snap, ok, err := snapshot.Load(s.cfg.SnapshotDir)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}
	if ok {
		for _, e := range snap.Entries {
			for _, sig := range e.Signatures {
				rec := signature.Record{Extension: e.Extension, Signature: sig, Length: e.Length}
				if err := s.catalog.Add(rec); err != nil {
					return 0, fmt.Errorf("snapshot entry %q: %w", e.Extension, err)
				}
			}
		}
		s.log.Info("snapshot loaded", zap.Uint64("seq", snap.Seq), zap.Int("extensions", len(snap.Entries)))
		return snap.Seq, nil
	}

	if s.cfg.SignatureFile == "" {
		return 0, nil
	}
	_, err = s.loader.LoadFile(ctx, s.cfg.SignatureFile, s.catalog.Add)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Warn("signature file missing, starting empty", zap.String("path", s.cfg.SignatureFile))
		return 0, nil
	}
	return 0, err
}

// apply re-executes one journaled mutation. Removals are journaled by the
// extension they dropped.
func (s *CatalogService) apply(rec *entrywal.Record) error {
	switch rec.Type {
	case entrywal.RecordInsert:
		r, err := loader.ParseLine(string(rec.Data))
		if err != nil {
			return err
		}
		return s.catalog.Add(r)
	case entrywal.RecordRemove:
		ext, _, ok := strings.Cut(string(rec.Data), ",")
		if !ok {
			return fmt.Errorf("invalid remove payload: %q", rec.Data)
		}
		if !s.catalog.RemoveExtension(ext) {
			s.log.Warn("replayed removal of missing extension", zap.String("extension", ext), zap.Uint64("seq", rec.Seq))
		}
		return nil
	default:
		return fmt.Errorf("unknown record type %d", rec.Type)
	}
}
