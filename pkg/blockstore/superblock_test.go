package blockstore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuperblockSerializeDeserializeRoundTrip(t *testing.T) {
	var devUUID, clusterUUID [16]byte
	devUUID[0] = 1
	clusterUUID[0] = 2

	sb := NewSuperblock(devUUID, clusterUUID, 0, RoleData, 1<<20, 4096*8, 1700000000)
	buf := sb.Serialize()
	require.Len(t, buf, SuperblockSize)

	require.NoError(t, Validate(buf))

	got, err := DeserializeSuperblock(buf)
	require.NoError(t, err)
	require.Equal(t, sb.DeviceUUID, got.DeviceUUID)
	require.Equal(t, sb.ClusterUUID, got.ClusterUUID)
	require.Equal(t, sb.CapacityBlocks, got.CapacityBlocks)
	require.Equal(t, sb.DataStartOffsetBlocks, got.DataStartOffsetBlocks)
}

func TestSuperblockLayoutInvariant(t *testing.T) {
	totalBlocks := uint64(1000)
	blockSizeBits := uint64(4096 * 8)
	dataStart := ComputeDataStart(totalBlocks, blockSizeBits)
	require.Equal(t, uint64(2), dataStart) // 1 + ceil(1000/(32768*8)) = 1 + 1
}

func TestValidateRejectsBadMagic(t *testing.T) {
	var devUUID, clusterUUID [16]byte
	sb := NewSuperblock(devUUID, clusterUUID, 0, RoleData, 100, 4096*8, 1)
	buf := sb.Serialize()
	buf[0] = 0xAB

	err := Validate(buf)
	require.Error(t, err)
}

func TestValidateRejectsBadChecksum(t *testing.T) {
	var devUUID, clusterUUID [16]byte
	sb := NewSuperblock(devUUID, clusterUUID, 0, RoleData, 100, 4096*8, 1)
	buf := sb.Serialize()
	buf[SuperblockSize-1] ^= 0xFF

	err := Validate(buf)
	require.Error(t, err)
}

func TestDeserializeRejectsShortInput(t *testing.T) {
	_, err := DeserializeSuperblock(make([]byte, 100))
	require.Error(t, err)
}

func TestIncrementMountCount(t *testing.T) {
	var devUUID, clusterUUID [16]byte
	sb := NewSuperblock(devUUID, clusterUUID, 0, RoleData, 100, 4096*8, 1)
	sb.IncrementMountCount(42)
	require.Equal(t, uint32(1), sb.MountCount)
	require.Equal(t, uint64(42), sb.UpdatedAtSecs)
}

func TestIsSameCluster(t *testing.T) {
	var devUUID, clusterUUID [16]byte
	clusterUUID[0] = 9
	sb := NewSuperblock(devUUID, clusterUUID, 0, RoleData, 100, 4096*8, 1)
	require.True(t, sb.IsSameCluster(clusterUUID))
	var other [16]byte
	other[0] = 8
	require.False(t, sb.IsSameCluster(other))
}
