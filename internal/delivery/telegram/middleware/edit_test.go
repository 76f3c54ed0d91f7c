package middleware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotModified(t *testing.T) {
	assert.True(t, IsNotModified(errors.New("telegram: Bad Request: message is not modified: specified new message content (400)")))
	assert.False(t, IsNotModified(errors.New("telegram: Bad Request: message to edit not found (400)")))
	assert.False(t, IsNotModified(nil))
}
