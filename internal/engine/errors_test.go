package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkflowError_Message(t *testing.T) {
	err := NewInvalidTransitionError("t-1", "complete", "development", "[bd]")
	assert.Contains(t, err.Error(), "INVALID_TRANSITION")
	assert.Contains(t, err.Error(), "t-1")
	assert.Contains(t, err.Error(), "complete")
}

func TestCodeHelpers_UnwrapWrappedErrors(t *testing.T) {
	base := NewSideEffectError("t-1", "complete", "exit status 1")
	wrapped := fmt.Errorf("attempt transition: %w", base)

	assert.True(t, IsSideEffectFailed(wrapped))
	assert.False(t, IsInvalidTransition(wrapped))
	assert.Equal(t, ErrCodeSideEffectFailed, CodeOf(wrapped))
}

func TestCodeOf_NonWorkflowError(t *testing.T) {
	assert.Equal(t, WorkflowErrorCode(""), CodeOf(fmt.Errorf("plain")))
	assert.False(t, IsNotFound(fmt.Errorf("plain")))
}
