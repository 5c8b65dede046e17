package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := Conflict("event is full").WithCode("at_capacity")
	wrapped := fmt.Errorf("register: %w", base)

	require.True(t, Is(wrapped, KindConflict))
	require.Equal(t, KindConflict, KindOf(wrapped))
	require.Equal(t, "at_capacity", CodeOf(wrapped))

	var target *Error
	require.ErrorAs(t, wrapped, &target)
	require.Equal(t, "event is full", target.Message)
}

func TestUnclassifiedIsInternal(t *testing.T) {
	err := errors.New("boom")
	require.Equal(t, KindInternal, KindOf(err))
	require.Empty(t, CodeOf(err))
}

func TestDetailsAndCause(t *testing.T) {
	cause := errors.New("pool closed")
	err := Internal(cause, "load %s", "org").WithDetail("id", "x")
	require.ErrorIs(t, err, cause)
	require.Equal(t, "load org: pool closed", err.Error())
	require.Equal(t, map[string]any{"id": "x"}, err.Details)
}
