package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages on this service are google.protobuf.Struct bodies, so the
// descriptor is declared by hand instead of generated.

const ServiceName = "filesig.v1.SignatureService"

const (
	MethodAddSignature    = "/" + ServiceName + "/AddSignature"
	MethodRemoveSignature = "/" + ServiceName + "/RemoveSignature"
	MethodLookup          = "/" + ServiceName + "/Lookup"
	MethodCheckFile       = "/" + ServiceName + "/CheckFile"
	MethodDumpTree        = "/" + ServiceName + "/DumpTree"
)

// SignatureServiceServer is the server API for filesig.v1.SignatureService.
type SignatureServiceServer interface {
	AddSignature(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveSignature(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Lookup(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CheckFile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DumpTree(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterSignatureServiceServer(s grpc.ServiceRegistrar, srv SignatureServiceServer) {
	s.RegisterService(&SignatureServiceDesc, srv)
}

type unaryCall func(SignatureServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SignatureServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SignatureServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var SignatureServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SignatureServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "AddSignature",
			Handler:    unaryHandler(MethodAddSignature, SignatureServiceServer.AddSignature),
		},
		{
			MethodName: "RemoveSignature",
			Handler:    unaryHandler(MethodRemoveSignature, SignatureServiceServer.RemoveSignature),
		},
		{
			MethodName: "Lookup",
			Handler:    unaryHandler(MethodLookup, SignatureServiceServer.Lookup),
		},
		{
			MethodName: "CheckFile",
			Handler:    unaryHandler(MethodCheckFile, SignatureServiceServer.CheckFile),
		},
		{
			MethodName: "DumpTree",
			Handler:    unaryHandler(MethodDumpTree, SignatureServiceServer.DumpTree),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "filesig/v1/signature.proto",
}
