package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestHTTPStatus_PerKind(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("hash", "bad"), http.StatusBadRequest},
		{Auth("no token"), http.StatusUnauthorized},
		{Forbidden("insufficient role"), http.StatusForbidden},
		{NotFoundf("version %s", "x"), http.StatusNotFound},
		{Conflictf("already advanced"), http.StatusConflict},
		{Unavailable("mongo", errors.New("dial")), http.StatusServiceUnavailable},
		{Integrity("hash mismatch"), http.StatusUnprocessableEntity},
		{New(Internal, "boom"), http.StatusInternalServerError},
		{nil, http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err))
	}
}

func TestGRPCCode_PerKind(t *testing.T) {
	assert.Equal(t, codes.PermissionDenied, GRPCCode(Forbidden("x")))
	assert.Equal(t, codes.Unauthenticated, GRPCCode(Auth("x")))
	assert.Equal(t, codes.InvalidArgument, GRPCCode(Validation("f", "x")))
	assert.Equal(t, codes.Internal, GRPCCode(nil))
}

func TestKindOf_WrapsUntyped(t *testing.T) {
	assert.Equal(t, Internal, KindOf(errors.New("plain")))
	assert.Equal(t, NotFound, KindOf(NotFoundf("missing")))

	wrapped := fmt.Errorf("context: %w", Conflictf("cas lost"))
	assert.Equal(t, Conflict, KindOf(wrapped))
}

func TestAsError_WrapsUntyped(t *testing.T) {
	e := AsError(errors.New("plain"))
	assert.Equal(t, Internal, e.Kind)
	assert.Nil(t, AsError(nil))
}
