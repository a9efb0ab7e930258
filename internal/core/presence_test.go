package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresence(t *testing.T) {
	var p Presence
	_, ok := p.Typing()
	require.False(t, ok)

	p.Set("A")
	p.Set("B")
	name, ok := p.Typing()
	require.True(t, ok)
	require.Equal(t, "B", name, "only the latest typer is tracked")

	require.False(t, p.Clear("A"), "stale stop keeps the newer typer")
	name, _ = p.Typing()
	require.Equal(t, "B", name)

	require.True(t, p.Clear("B"))
	_, ok = p.Typing()
	require.False(t, ok)
	require.False(t, p.Clear("B"))
}
