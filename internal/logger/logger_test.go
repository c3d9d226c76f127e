package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewByEnvironment(t *testing.T) {
	for _, env := range []string{"production", "PRODUCTION", "development", "staging", ""} {
		l, err := New(env)
		require.NoError(t, err, "env %q", env)
		require.NotNil(t, l)
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	require.NotNil(t, l)
	l.Infow("dropped", "k", "v")
}
