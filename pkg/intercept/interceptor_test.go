package intercept

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlot_InstallSupersedes(t *testing.T) {
	slot := &Slot{}
	require.Nil(t, slot.Active(), "fresh slot must pass traffic through")

	first := func(op *Operation) (any, error) { return "first", nil }
	second := func(op *Operation) (any, error) { return "second", nil }

	require.False(t, slot.Install(first), "installing into an empty slot supersedes nothing")
	require.NotNil(t, slot.Active())

	require.True(t, slot.Install(second), "second install must supersede the first")

	value, err := slot.Active()(&Operation{Name: "Anything"})
	require.NoError(t, err)
	require.Equal(t, "second", value, "only the latest interceptor may be active")
}

func TestSlot_Clear(t *testing.T) {
	slot := &Slot{}
	require.False(t, slot.Clear(), "clearing an empty slot removes nothing")

	slot.Install(func(op *Operation) (any, error) { return nil, nil })
	require.True(t, slot.Clear())
	require.Nil(t, slot.Active(), "cleared slot must restore the original path")
}
