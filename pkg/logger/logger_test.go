package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInitializesGlobals(t *testing.T) {
	l, err := New("debug", "test-svc", true)
	require.NoError(t, err)
	require.NotNil(t, l)

	assert.Same(t, l, InfoLogger)
	assert.Equal(t, "test-svc", serviceName)
	assert.NotPanics(t, func() { Info("hello %d", 1) })
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("loud", "x", false)
	assert.Error(t, err)
}
