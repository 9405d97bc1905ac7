package errs

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// HTTPStatus maps an Error to the HTTP status code the API surface responds
// with. A nil err (or one not carrying a Kind) maps to 500.
func HTTPStatus(err *Error) int {
	if err == nil {
		return http.StatusInternalServerError
	}
	if err.Kind == AuthError && err.Forbidden {
		return http.StatusForbidden
	}
	return httpStatusForKind(err.Kind)
}

func httpStatusForKind(kind Kind) int {
	switch kind {
	case ValidationError:
		return http.StatusBadRequest
	case AuthError:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case DependencyUnavailable:
		return http.StatusServiceUnavailable
	case IntegrityError:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// HTTPCode maps an Error to the machine-readable code string returned
// alongside the HTTP status.
func HTTPCode(err *Error) string {
	if err == nil {
		return "INTERNAL"
	}
	if err.Kind == AuthError && err.Forbidden {
		return "PERMISSION_DENIED"
	}
	return httpCodeForKind(err.Kind)
}

func httpCodeForKind(kind Kind) string {
	switch kind {
	case ValidationError:
		return "INVALID_ARGUMENT"
	case AuthError:
		return "UNAUTHENTICATED"
	case NotFound:
		return "NOT_FOUND"
	case Conflict:
		return "CONFLICT"
	case DependencyUnavailable:
		return "UNAVAILABLE"
	case IntegrityError:
		return "INTEGRITY_ERROR"
	default:
		return "INTERNAL"
	}
}

// GRPCCode maps an Error to a gRPC status code.
func GRPCCode(err *Error) codes.Code {
	if err == nil {
		return codes.Internal
	}
	if err.Kind == AuthError && err.Forbidden {
		return codes.PermissionDenied
	}
	return grpcCodeForKind(err.Kind)
}

func grpcCodeForKind(kind Kind) codes.Code {
	switch kind {
	case ValidationError:
		return codes.InvalidArgument
	case AuthError:
		return codes.Unauthenticated
	case NotFound:
		return codes.NotFound
	case Conflict:
		return codes.AlreadyExists
	case DependencyUnavailable:
		return codes.Unavailable
	case IntegrityError:
		return codes.DataLoss
	default:
		return codes.Internal
	}
}
