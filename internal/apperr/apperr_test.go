package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	require.Equal(t, KindNotFound, KindOf(NotFound("x")))
	require.Equal(t, KindConflict, KindOf(Conflict("x")))
	require.Equal(t, KindBadRequest, KindOf(BadRequest("x")))
	require.Equal(t, KindUnauthorized, KindOf(Unauthorized("x")))
	require.Equal(t, KindInternal, KindOf(errors.New("boom")))

	// Kinds survive wrapping.
	wrapped := fmt.Errorf("outer: %w", Conflict("dup"))
	require.Equal(t, KindConflict, KindOf(wrapped))
}

func TestMessage_NeverLeaksInternalCause(t *testing.T) {
	require.Equal(t, "dup", Message(Conflict("dup")))
	require.Equal(t, "internal error", Message(Internal(errors.New("secret detail"))))
	require.Equal(t, "internal error", Message(errors.New("secret detail")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root")
	err := Internal(cause)
	require.ErrorIs(t, err, cause)
}
