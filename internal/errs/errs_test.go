package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := New(KindConfig, "bad range %d", 42)
	assert.Equal(t, KindConfig, KindOf(err))
	assert.True(t, Is(err, KindConfig))
	assert.False(t, Is(err, KindAdapter))
	assert.Contains(t, err.Error(), "bad range 42")
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(KindAdapter, "connection refused")
	outer := fmt.Errorf("chunk 3: %w", inner)
	assert.Equal(t, KindAdapter, KindOf(outer))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(KindPersistence, nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := Wrap(KindPersistence, cause)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindPersistence, KindOf(err))
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}
