package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLevels(t *testing.T) {
	t.Cleanup(func() { _ = Init(Config{}) })

	require.NoError(t, Init(Config{Level: "warn"}))
	assert.Equal(t, zerolog.WarnLevel, Get().GetLevel())

	require.NoError(t, Init(Config{Level: "warn", Debug: true}))
	assert.Equal(t, zerolog.DebugLevel, Get().GetLevel())

	assert.Error(t, Init(Config{Level: "loud"}))
}

func TestWithComponent(t *testing.T) {
	t.Cleanup(func() { _ = Init(Config{}) })
	require.NoError(t, Init(Config{Level: "error"}))

	l := WithComponent("probe")
	assert.Equal(t, zerolog.ErrorLevel, l.GetLevel())
}
