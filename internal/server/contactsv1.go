package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Service and method names of the contacts.v1 API. Requests and responses
// are google.protobuf.Struct values.
const (
	ContactExtractorServiceName = "contacts.v1.ContactExtractor"

	methodExtractText  = "/contacts.v1.ContactExtractor/ExtractText"
	methodProcessFile  = "/contacts.v1.ContactExtractor/ProcessFile"
	methodGetRun       = "/contacts.v1.ContactExtractor/GetRun"
	methodListContacts = "/contacts.v1.ContactExtractor/ListContacts"
)

// ContactExtractorServer is the server API for contacts.v1.ContactExtractor.
type ContactExtractorServer interface {
	// ExtractText collects contacts from page-marked text: {"text", "source"}.
	ExtractText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ProcessFile runs a server-side file through the pipeline: {"path", "async"}.
	ProcessFile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// GetRun returns a stored extraction run: {"run_id"}.
	GetRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListContacts returns the contacts of a stored run: {"run_id"}.
	ListContacts(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(ContactExtractorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ContactExtractorServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ContactExtractorServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ContactExtractorServiceDesc is the grpc.ServiceDesc for contacts.v1.ContactExtractor.
var ContactExtractorServiceDesc = grpc.ServiceDesc{
	ServiceName: ContactExtractorServiceName,
	HandlerType: (*ContactExtractorServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ExtractText", Handler: unaryHandler(methodExtractText, ContactExtractorServer.ExtractText)},
		{MethodName: "ProcessFile", Handler: unaryHandler(methodProcessFile, ContactExtractorServer.ProcessFile)},
		{MethodName: "GetRun", Handler: unaryHandler(methodGetRun, ContactExtractorServer.GetRun)},
		{MethodName: "ListContacts", Handler: unaryHandler(methodListContacts, ContactExtractorServer.ListContacts)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "contacts/v1/contacts.proto",
}

// RegisterContactExtractorServer registers srv on s.
func RegisterContactExtractorServer(s grpc.ServiceRegistrar, srv ContactExtractorServer) {
	s.RegisterService(&ContactExtractorServiceDesc, srv)
}

// ContactExtractorClient is the client API for contacts.v1.ContactExtractor.
type ContactExtractorClient struct {
	cc grpc.ClientConnInterface
}

func NewContactExtractorClient(cc grpc.ClientConnInterface) *ContactExtractorClient {
	return &ContactExtractorClient{cc: cc}
}

func (c *ContactExtractorClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ContactExtractorClient) ExtractText(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodExtractText, in, opts...)
}

func (c *ContactExtractorClient) ProcessFile(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodProcessFile, in, opts...)
}

func (c *ContactExtractorClient) GetRun(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetRun, in, opts...)
}

func (c *ContactExtractorClient) ListContacts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodListContacts, in, opts...)
}
