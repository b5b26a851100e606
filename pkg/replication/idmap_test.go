package replication

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDMapperPassthroughByDefault(t *testing.T) {
	m := NewIDMapper()
	require.True(t, m.IsPassthrough())
	require.Equal(t, uint32(1000), m.MapUID("site-a", 1000))
	require.Equal(t, uint32(1000), m.MapGID("site-a", 1000))
}

func TestIDMapperBecomesTableBasedOnFirstEntry(t *testing.T) {
	m := NewIDMapper()
	m.AddUIDMapping("site-a", 1000, 2000)
	require.False(t, m.IsPassthrough())
	require.Equal(t, uint32(2000), m.MapUID("site-a", 1000))

	require.Equal(t, uint32(1001), m.MapUID("site-a", 1001), "unmapped ids still pass through")
}

func TestIDMapperRemoveMapping(t *testing.T) {
	m := NewIDMapper()
	m.AddGIDMapping("site-a", 100, 200)
	require.Equal(t, uint32(200), m.MapGID("site-a", 100))
	m.RemoveGIDMapping("site-a", 100)
	require.Equal(t, uint32(100), m.MapGID("site-a", 100))
}
