package rejection

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultMessage(t *testing.T) {
	r := New(CodeExpired)
	assert.Equal(t, CodeExpired, r.Code)
	assert.Equal(t, "session token has expired", r.Message)
	assert.Equal(t, "expired: session token has expired", r.Error())
}

func TestEveryCodeHasMessageAndClass(t *testing.T) {
	for code := range classes {
		assert.NotEmpty(t, defaultMessages[code], "message for %s", code)
	}
	for code := range defaultMessages {
		assert.NotEmpty(t, classes[code], "class for %s", code)
	}
}

func TestClass(t *testing.T) {
	assert.Equal(t, ClassMalformed, New(CodeMalformed).Class())
	assert.Equal(t, ClassIntegrity, New(CodeSignatureInvalid).Class())
	assert.Equal(t, ClassTemporal, New(CodeElapsedExceeded).Class())
	assert.Equal(t, ClassConsistency, New(CodeScoreMismatch).Class())
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", Newf(CodeAnswerCountMismatch, "expected %d, got %d", 5, 3))

	r, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "expected 5, got 3", r.Message)
	assert.True(t, HasCode(wrapped, CodeAnswerCountMismatch))
	assert.False(t, HasCode(wrapped, CodeUnknownQuestion))

	_, ok = As(errors.New("db down"))
	assert.False(t, ok)
}
