// Package grpcregistry exposes a registry.Registry over gRPC.
//
// Caller identity travels in the request messages; the daemon trusts the
// transport in front of it to have authenticated the caller. Authentication
// itself lives outside this service.
package grpcregistry

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/credreg/registry"
)

// Server exposes a registry.Registry over the Registry gRPC service.
type Server struct {
	UnimplementedRegistryServer
	Registry *registry.Registry
}

func (s *Server) ready() error {
	if s == nil || s.Registry == nil {
		return status.Error(codes.FailedPrecondition, "missing registry")
	}
	return nil
}

func (s *Server) AddRegistrar(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	caller, err := principalField(in, fieldCaller)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	target, err := principalField(in, fieldRegistrar)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.Registry.AddRegistrar(caller, target); err != nil {
		return nil, mapErr(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) RemoveRegistrar(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	caller, err := principalField(in, fieldCaller)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	target, err := principalField(in, fieldRegistrar)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.Registry.RemoveRegistrar(caller, target); err != nil {
		return nil, mapErr(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) IsRegistrar(ctx context.Context, in *structpb.Struct) (*wrapperspb.BoolValue, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	p, err := principalField(in, fieldPrincipal)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return wrapperspb.Bool(s.Registry.IsRegistrar(p)), nil
}

func (s *Server) IssueCertificate(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	caller, err := principalField(in, fieldCaller)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	hash, err := hashField(in, fieldCertHash)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	student, err := principalField(in, fieldStudent)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	driveLink, err := stringField(in, fieldDriveLink)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if _, err := s.Registry.IssueCertificate(caller, hash, student, driveLink); err != nil {
		return nil, mapErr(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) RevokeCertificate(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	caller, err := principalField(in, fieldCaller)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	hash, err := hashField(in, fieldCertHash)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	reason, err := stringField(in, fieldReason)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.Registry.RevokeCertificate(caller, hash, reason); err != nil {
		return nil, mapErr(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) VerifyCertificate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	hash, err := hashField(in, fieldCertHash)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	valid, rec := s.Registry.VerifyCertificate(hash)
	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldValid: structpb.NewBoolValue(valid),
	}}
	// The record rides along for known hashes, revoked ones included.
	if !rec.Hash.IsZero() {
		recSt, err := recordStruct(rec)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		out.Fields[fieldRecord] = structpb.NewStructValue(recSt)
	}
	return out, nil
}

func (s *Server) GetCertificate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	_ = ctx
	if err := s.ready(); err != nil {
		return nil, err
	}
	hash, err := hashField(in, fieldCertHash)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	rec, err := s.Registry.GetCertificate(hash)
	if err != nil {
		return nil, mapErr(err)
	}
	out, err := recordStruct(rec)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (s *Server) GetTotalCertificates(ctx context.Context, in *emptypb.Empty) (*wrapperspb.UInt64Value, error) {
	_ = ctx
	_ = in
	if err := s.ready(); err != nil {
		return nil, err
	}
	return wrapperspb.UInt64(s.Registry.TotalCertificates()), nil
}
