package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "cryptnotes.v1.Notes"

const (
	MethodRegister       = "/" + ServiceName + "/Register"
	MethodGetKeyMaterial = "/" + ServiceName + "/GetKeyMaterial"
	MethodLogin          = "/" + ServiceName + "/Login"
	MethodLogout         = "/" + ServiceName + "/Logout"
	MethodSessionInfo    = "/" + ServiceName + "/SessionInfo"
	MethodRefreshSession = "/" + ServiceName + "/RefreshSession"
	MethodCreateNote     = "/" + ServiceName + "/CreateNote"
	MethodListNotes      = "/" + ServiceName + "/ListNotes"
	MethodGetNote        = "/" + ServiceName + "/GetNote"
	MethodUpdateNote     = "/" + ServiceName + "/UpdateNote"
	MethodDeleteNote     = "/" + ServiceName + "/DeleteNote"
	MethodExportNotes    = "/" + ServiceName + "/ExportNotes"
	MethodPing           = "/" + ServiceName + "/Ping"
)

var publicMethods = map[string]struct{}{
	MethodRegister:       {},
	MethodGetKeyMaterial: {},
	MethodLogin:          {},
	MethodPing:           {},
}

// IsPublic reports whether fullMethod may be called without a session.
func IsPublic(fullMethod string) bool {
	_, ok := publicMethods[fullMethod]
	return ok
}

// NotesServer is implemented by the server's gRPC layer.
type NotesServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	GetKeyMaterial(context.Context, *KeyMaterialRequest) (*KeyMaterialResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Logout(context.Context, *Empty) (*Empty, error)
	SessionInfo(context.Context, *Empty) (*SessionResponse, error)
	RefreshSession(context.Context, *Empty) (*SessionResponse, error)
	CreateNote(context.Context, *CreateNoteRequest) (*NoteResponse, error)
	ListNotes(context.Context, *Empty) (*ListNotesResponse, error)
	GetNote(context.Context, *NoteIDRequest) (*NoteResponse, error)
	UpdateNote(context.Context, *UpdateNoteRequest) (*NoteResponse, error)
	DeleteNote(context.Context, *NoteIDRequest) (*Empty, error)
	ExportNotes(context.Context, *Empty) (*ExportResponse, error)
	Ping(context.Context, *Empty) (*PingResponse, error)
}

type validator interface {
	Validate() error
}

// unary builds a MethodDesc that decodes Req, runs the interceptor chain,
// validates the request and dispatches to call.
func unary[Req any, Resp any](name string, call func(NotesServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, status.Error(codes.InvalidArgument, "malformed request")
			}

			handler := func(ctx context.Context, req any) (any, error) {
				r := req.(*Req)
				if v, ok := any(r).(validator); ok {
					if err := v.Validate(); err != nil {
						return nil, ToStatus(err)
					}
				}
				return call(srv.(NotesServer), ctx, r)
			}

			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the Notes service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NotesServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", NotesServer.Register),
		unary("GetKeyMaterial", NotesServer.GetKeyMaterial),
		unary("Login", NotesServer.Login),
		unary("Logout", NotesServer.Logout),
		unary("SessionInfo", NotesServer.SessionInfo),
		unary("RefreshSession", NotesServer.RefreshSession),
		unary("CreateNote", NotesServer.CreateNote),
		unary("ListNotes", NotesServer.ListNotes),
		unary("GetNote", NotesServer.GetNote),
		unary("UpdateNote", NotesServer.UpdateNote),
		unary("DeleteNote", NotesServer.DeleteNote),
		unary("ExportNotes", NotesServer.ExportNotes),
		unary("Ping", NotesServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cryptnotes/v1/notes",
}

func RegisterNotesServer(s grpc.ServiceRegistrar, srv NotesServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// NotesClient is the client-side stub of the Notes service.
type NotesClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	GetKeyMaterial(ctx context.Context, in *KeyMaterialRequest, opts ...grpc.CallOption) (*KeyMaterialResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	Logout(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error)
	SessionInfo(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SessionResponse, error)
	RefreshSession(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SessionResponse, error)
	CreateNote(ctx context.Context, in *CreateNoteRequest, opts ...grpc.CallOption) (*NoteResponse, error)
	ListNotes(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListNotesResponse, error)
	GetNote(ctx context.Context, in *NoteIDRequest, opts ...grpc.CallOption) (*NoteResponse, error)
	UpdateNote(ctx context.Context, in *UpdateNoteRequest, opts ...grpc.CallOption) (*NoteResponse, error)
	DeleteNote(ctx context.Context, in *NoteIDRequest, opts ...grpc.CallOption) (*Empty, error)
	ExportNotes(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ExportResponse, error)
	Ping(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PingResponse, error)
}

type notesClient struct {
	cc grpc.ClientConnInterface
}

func NewNotesClient(cc grpc.ClientConnInterface) NotesClient {
	return &notesClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *notesClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *notesClient) GetKeyMaterial(ctx context.Context, in *KeyMaterialRequest, opts ...grpc.CallOption) (*KeyMaterialResponse, error) {
	return invoke[KeyMaterialResponse](ctx, c.cc, MethodGetKeyMaterial, in, opts)
}

func (c *notesClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *notesClient) Logout(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodLogout, in, opts)
}

func (c *notesClient) SessionInfo(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, MethodSessionInfo, in, opts)
}

func (c *notesClient) RefreshSession(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, MethodRefreshSession, in, opts)
}

func (c *notesClient) CreateNote(ctx context.Context, in *CreateNoteRequest, opts ...grpc.CallOption) (*NoteResponse, error) {
	return invoke[NoteResponse](ctx, c.cc, MethodCreateNote, in, opts)
}

func (c *notesClient) ListNotes(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ListNotesResponse, error) {
	return invoke[ListNotesResponse](ctx, c.cc, MethodListNotes, in, opts)
}

func (c *notesClient) GetNote(ctx context.Context, in *NoteIDRequest, opts ...grpc.CallOption) (*NoteResponse, error) {
	return invoke[NoteResponse](ctx, c.cc, MethodGetNote, in, opts)
}

func (c *notesClient) UpdateNote(ctx context.Context, in *UpdateNoteRequest, opts ...grpc.CallOption) (*NoteResponse, error) {
	return invoke[NoteResponse](ctx, c.cc, MethodUpdateNote, in, opts)
}

func (c *notesClient) DeleteNote(ctx context.Context, in *NoteIDRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodDeleteNote, in, opts)
}

func (c *notesClient) ExportNotes(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ExportResponse, error) {
	return invoke[ExportResponse](ctx, c.cc, MethodExportNotes, in, opts)
}

func (c *notesClient) Ping(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

// UnimplementedNotesServer can be embedded to satisfy NotesServer partially.
type UnimplementedNotesServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedNotesServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, unimplemented("Register")
}
func (UnimplementedNotesServer) GetKeyMaterial(context.Context, *KeyMaterialRequest) (*KeyMaterialResponse, error) {
	return nil, unimplemented("GetKeyMaterial")
}
func (UnimplementedNotesServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedNotesServer) Logout(context.Context, *Empty) (*Empty, error) {
	return nil, unimplemented("Logout")
}
func (UnimplementedNotesServer) SessionInfo(context.Context, *Empty) (*SessionResponse, error) {
	return nil, unimplemented("SessionInfo")
}
func (UnimplementedNotesServer) RefreshSession(context.Context, *Empty) (*SessionResponse, error) {
	return nil, unimplemented("RefreshSession")
}
func (UnimplementedNotesServer) CreateNote(context.Context, *CreateNoteRequest) (*NoteResponse, error) {
	return nil, unimplemented("CreateNote")
}
func (UnimplementedNotesServer) ListNotes(context.Context, *Empty) (*ListNotesResponse, error) {
	return nil, unimplemented("ListNotes")
}
func (UnimplementedNotesServer) GetNote(context.Context, *NoteIDRequest) (*NoteResponse, error) {
	return nil, unimplemented("GetNote")
}
func (UnimplementedNotesServer) UpdateNote(context.Context, *UpdateNoteRequest) (*NoteResponse, error) {
	return nil, unimplemented("UpdateNote")
}
func (UnimplementedNotesServer) DeleteNote(context.Context, *NoteIDRequest) (*Empty, error) {
	return nil, unimplemented("DeleteNote")
}
func (UnimplementedNotesServer) ExportNotes(context.Context, *Empty) (*ExportResponse, error) {
	return nil, unimplemented("ExportNotes")
}
func (UnimplementedNotesServer) Ping(context.Context, *Empty) (*PingResponse, error) {
	return nil, unimplemented("Ping")
}
