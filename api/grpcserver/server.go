package grpcserver

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"filesig/domain/signature"
)

// Catalog is the part of service.CatalogService the transport needs.
type Catalog interface {
	AddSignature(rec signature.Record) (uint64, error)
	RemoveSignature(sig string) (string, bool, error)
	Lookup(ext string) ([]string, int, bool)
	CheckFile(ctx context.Context, path string) (signature.Result, error)
	Dump(w io.Writer) error
}

var errOutsideRoot = errors.New("path is outside the check root")

// Server adapts CatalogService to gRPC.
type Server struct {
	svc       Catalog
	log       *zap.Logger
	checkRoot string
}

type Option func(*Server)

// WithCheckRoot confines CheckFile to files under dir; relative paths are
// taken from dir. Without it the server reads any path it can open, which
// only suits trusted clients.
func WithCheckRoot(dir string) Option {
	return func(s *Server) {
		s.checkRoot = dir
	}
}

func NewServer(svc Catalog, log *zap.Logger, opts ...Option) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{svc: svc, log: log.Named("grpc")}
	for _, opt := range opts {
		opt(s)
	}
	if s.checkRoot != "" {
		s.checkRoot = resolveRoot(s.checkRoot)
	}
	return s
}

// -------------------- Commands --------------------

func (s *Server) AddSignature(
	ctx context.Context,
	req *structpb.Struct,
) (*structpb.Struct, error) {
	ext, err := stringField(req, "extension")
	if err != nil {
		return nil, toStatus(err)
	}
	sig, err := stringField(req, "signature")
	if err != nil {
		return nil, toStatus(err)
	}
	length, err := intField(req, "length")
	if err != nil {
		return nil, toStatus(err)
	}

	seq, err := s.svc.AddSignature(signature.Record{Extension: ext, Signature: sig, Length: length})
	if err != nil {
		return nil, toStatus(err)
	}

	s.log.Debug("AddSignature",
		zap.String("extension", ext),
		zap.String("signature", sig),
		zap.Int("length", length),
		zap.Uint64("seq", seq),
	)
	return response(map[string]any{
		"status": "ok",
		"seq":    formatSeq(seq),
	})
}

func (s *Server) RemoveSignature(
	ctx context.Context,
	req *structpb.Struct,
) (*structpb.Struct, error) {
	sig, err := stringField(req, "signature")
	if err != nil {
		return nil, toStatus(err)
	}

	ext, removed, err := s.svc.RemoveSignature(sig)
	if err != nil {
		return nil, toStatus(err)
	}

	s.log.Debug("RemoveSignature", zap.String("signature", sig), zap.Bool("removed", removed))
	return response(map[string]any{
		"removed":   removed,
		"extension": ext,
	})
}

// -------------------- Queries --------------------

func (s *Server) Lookup(
	ctx context.Context,
	req *structpb.Struct,
) (*structpb.Struct, error) {
	ext, err := stringField(req, "extension")
	if err != nil {
		return nil, toStatus(err)
	}

	sigs, length, found := s.svc.Lookup(strings.TrimSpace(ext))
	return response(map[string]any{
		"found":      found,
		"signatures": stringList(sigs),
		"length":     length,
	})
}

func (s *Server) CheckFile(
	ctx context.Context,
	req *structpb.Struct,
) (*structpb.Struct, error) {
	path, err := stringField(req, "path")
	if err != nil {
		return nil, toStatus(err)
	}
	resolved, err := s.confine(path)
	if err != nil {
		s.log.Warn("CheckFile rejected", zap.String("path", path))
		return nil, toStatus(err)
	}

	res, err := s.svc.CheckFile(ctx, resolved)
	if err != nil {
		return nil, toStatus(err)
	}
	return response(map[string]any{
		"status":    res.Status.String(),
		"extension": res.Extension,
		"signature": res.Signature,
		"expected":  stringList(res.Expected),
	})
}

func (s *Server) DumpTree(
	ctx context.Context,
	req *structpb.Struct,
) (*structpb.Struct, error) {
	var b strings.Builder
	if err := s.svc.Dump(&b); err != nil {
		return nil, toStatus(err)
	}
	return response(map[string]any{"dump": b.String()})
}

// -------------------- Path confinement --------------------

// confine resolves path, symlinks included, and requires the result to sit
// under checkRoot. Anything that cannot be resolved is rejected the same
// way, so a caller learns nothing about files outside the root.
func (s *Server) confine(path string) (string, error) {
	if s.checkRoot == "" {
		return path, nil
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.checkRoot, path)
	}
	target, err := filepath.EvalSymlinks(path)
	if err != nil || !within(s.checkRoot, target) {
		return "", errOutsideRoot
	}
	return target, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && filepath.IsLocal(rel)
}

func resolveRoot(dir string) string {
	if target, err := filepath.EvalSymlinks(dir); err == nil {
		dir = target
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir
}

// -------------------- Converters --------------------

func response(fields map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return st, nil
}

// toStatus maps domain and I/O errors onto gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, errField), errors.Is(err, signature.ErrInvalidRecord):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errOutsideRoot):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, signature.ErrFileTooSmall), isPathError(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func isPathError(err error) bool {
	var pe *fs.PathError
	return errors.As(err, &pe)
}
