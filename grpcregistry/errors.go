package grpcregistry

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"xdao.co/credreg/registry"
)

func codeForKind(kind registry.Kind) codes.Code {
	switch kind {
	case registry.KindUnauthorized:
		return codes.PermissionDenied
	case registry.KindInvalidArgument:
		return codes.InvalidArgument
	case registry.KindConflict:
		return codes.AlreadyExists
	case registry.KindNotFound:
		return codes.NotFound
	case registry.KindInvalidState:
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

func kindForCode(code codes.Code) (registry.Kind, bool) {
	switch code {
	case codes.PermissionDenied:
		return registry.KindUnauthorized, true
	case codes.AlreadyExists:
		return registry.KindConflict, true
	case codes.NotFound:
		return registry.KindNotFound, true
	case codes.FailedPrecondition:
		return registry.KindInvalidState, true
	default:
		return "", false
	}
}

// mapErr converts registry errors into gRPC status errors, preserving the
// message verbatim so clients see the same text as in-process callers.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var regErr *registry.Error
	if errors.As(err, &regErr) {
		return status.Error(codeForKind(regErr.Kind), regErr.Message)
	}
	return status.Error(codes.Internal, err.Error())
}

// mapRPC converts gRPC status errors back into registry errors.
//
// InvalidArgument is ambiguous on the wire: the server uses it both for
// rejected registry arguments and for malformed request fields. Both decode
// to the same kind, which is what a caller handling the error keys on.
func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	if kind, ok := kindForCode(st.Code()); ok {
		return &registry.Error{Kind: kind, Message: st.Message()}
	}
	if st.Code() == codes.InvalidArgument {
		return &registry.Error{Kind: registry.KindInvalidArgument, Message: st.Message()}
	}
	return err
}
