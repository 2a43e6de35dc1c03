package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"filesig/domain/signature"
)

// Client is a typed caller for filesig.v1.SignatureService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddSignature(ctx context.Context, rec signature.Record, opts ...grpc.CallOption) (uint64, error) {
	out, err := c.invoke(ctx, MethodAddSignature, map[string]any{
		"extension": rec.Extension,
		"signature": rec.Signature,
		"length":    rec.Length,
	}, opts...)
	if err != nil {
		return 0, err
	}
	return seqField(out, "seq")
}

// RemoveSignature returns the extension that was dropped, if any.
func (c *Client) RemoveSignature(ctx context.Context, sig string, opts ...grpc.CallOption) (string, bool, error) {
	out, err := c.invoke(ctx, MethodRemoveSignature, map[string]any{"signature": sig}, opts...)
	if err != nil {
		return "", false, err
	}
	removed, err := boolField(out, "removed")
	if err != nil {
		return "", false, err
	}
	ext, err := stringField(out, "extension")
	if err != nil {
		return "", false, err
	}
	return ext, removed, nil
}

func (c *Client) Lookup(ctx context.Context, ext string, opts ...grpc.CallOption) ([]string, int, bool, error) {
	out, err := c.invoke(ctx, MethodLookup, map[string]any{"extension": ext}, opts...)
	if err != nil {
		return nil, 0, false, err
	}
	found, err := boolField(out, "found")
	if err != nil {
		return nil, 0, false, err
	}
	if !found {
		return nil, 0, false, nil
	}
	sigs, err := stringsField(out, "signatures")
	if err != nil {
		return nil, 0, false, err
	}
	length, err := intField(out, "length")
	if err != nil {
		return nil, 0, false, err
	}
	return sigs, length, true, nil
}

func (c *Client) CheckFile(ctx context.Context, path string, opts ...grpc.CallOption) (signature.Result, error) {
	out, err := c.invoke(ctx, MethodCheckFile, map[string]any{"path": path}, opts...)
	if err != nil {
		return signature.Result{}, err
	}

	res := signature.Result{Path: path}
	st, err := stringField(out, "status")
	if err != nil {
		return res, err
	}
	res.Status = parseStatus(st)
	if res.Extension, err = stringField(out, "extension"); err != nil {
		return res, err
	}
	if res.Signature, err = stringField(out, "signature"); err != nil {
		return res, err
	}
	if res.Expected, err = stringsField(out, "expected"); err != nil {
		return res, err
	}
	if len(res.Expected) == 0 {
		res.Expected = nil
	}
	return res, nil
}

func (c *Client) DumpTree(ctx context.Context, opts ...grpc.CallOption) (string, error) {
	out, err := c.invoke(ctx, MethodDumpTree, map[string]any{}, opts...)
	if err != nil {
		return "", err
	}
	return stringField(out, "dump")
}

func parseStatus(s string) signature.Status {
	switch s {
	case signature.Match.String():
		return signature.Match
	case signature.Mismatch.String():
		return signature.Mismatch
	default:
		return signature.Unknown
	}
}
