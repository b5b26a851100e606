package blockstore

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/claudefs/claudefs/pkg/claudeerr"
	"github.com/claudefs/claudefs/pkg/log"
)

const (
	superblockMagic   uint32 = 0x43465321
	superblockVersion uint16 = 1
	SuperblockSize           = 4096
)

// Role classifies what a device is used for within the cluster.
type Role uint8

const (
	RoleJournal  Role = 0
	RoleData     Role = 1
	RoleCombined Role = 2
)

// Superblock is the fixed structure stored at offset 0 of every
// device, padded to 4 KiB.
type Superblock struct {
	Version               uint16
	DeviceUUID             [16]byte
	ClusterUUID            [16]byte
	DeviceIndex            uint32
	Role                   Role
	CapacityBlocks         uint64
	AllocBitmapOffsetBlocks uint64
	DataStartOffsetBlocks  uint64
	CreatedAtSecs          uint64
	UpdatedAtSecs          uint64
	MountCount             uint32
}

// ComputeDataStart returns the offset (in blocks) where the data
// region begins, given the total block count and the number of bits
// the allocator bitmap packs per block.
//
// data_start = 1 + ceil(total_blocks / (block_size_bits * 8))
func ComputeDataStart(totalBlocks uint64, blockSizeBits uint64) uint64 {
	bitsPerBitmapBlock := blockSizeBits * 8
	bitmapBlocks := (totalBlocks + bitsPerBitmapBlock - 1) / bitsPerBitmapBlock
	return 1 + bitmapBlocks
}

// NewSuperblock builds a superblock with the layout computed from
// capacityBlocks and blockSizeBits.
func NewSuperblock(deviceUUID, clusterUUID [16]byte, deviceIndex uint32, role Role, capacityBlocks, blockSizeBits uint64, nowSecs uint64) Superblock {
	log.WithDevice(deviceIndex).Info().Uint64("capacity_blocks", capacityBlocks).Msg("superblock initialized")
	return Superblock{
		Version:                superblockVersion,
		DeviceUUID:             deviceUUID,
		ClusterUUID:            clusterUUID,
		DeviceIndex:            deviceIndex,
		Role:                   role,
		CapacityBlocks:         capacityBlocks,
		AllocBitmapOffsetBlocks: 1,
		DataStartOffsetBlocks:  ComputeDataStart(capacityBlocks, blockSizeBits),
		CreatedAtSecs:          nowSecs,
		UpdatedAtSecs:          nowSecs,
		MountCount:             0,
	}
}

// Serialize pads the superblock to exactly SuperblockSize bytes, with
// a CRC32C computed over the whole buffer with the checksum field
// zeroed, then written into that field.
func (sb Superblock) Serialize() []byte {
	buf := make([]byte, SuperblockSize)
	sb.encodeInto(buf, 0)
	crc := crc32.Checksum(buf, crc32.MakeTable(crc32.Castagnoli))
	binary.LittleEndian.PutUint32(buf[4:8], crc)
	return buf
}

// encodeInto writes every field except the checksum, which the
// caller fills in afterward (checksumAt lets the zeroed-field pass
// reuse the same layout routine).
func (sb Superblock) encodeInto(buf []byte, checksumAt uint32) {
	binary.LittleEndian.PutUint32(buf[0:4], superblockMagic)
	binary.LittleEndian.PutUint32(buf[4:8], checksumAt)
	binary.LittleEndian.PutUint16(buf[8:10], sb.Version)
	copy(buf[10:26], sb.DeviceUUID[:])
	copy(buf[26:42], sb.ClusterUUID[:])
	binary.LittleEndian.PutUint32(buf[42:46], sb.DeviceIndex)
	buf[46] = byte(sb.Role)
	binary.LittleEndian.PutUint64(buf[48:56], sb.CapacityBlocks)
	binary.LittleEndian.PutUint64(buf[56:64], sb.AllocBitmapOffsetBlocks)
	binary.LittleEndian.PutUint64(buf[64:72], sb.DataStartOffsetBlocks)
	binary.LittleEndian.PutUint64(buf[72:80], sb.CreatedAtSecs)
	binary.LittleEndian.PutUint64(buf[80:88], sb.UpdatedAtSecs)
	binary.LittleEndian.PutUint32(buf[88:92], sb.MountCount)
	for i := 92; i < SuperblockSize; i++ {
		buf[i] = 0
	}
}

// DeserializeSuperblock rejects input shorter than SuperblockSize but
// does not itself validate magic/version/checksum; call Validate for
// that.
func DeserializeSuperblock(buf []byte) (Superblock, error) {
	if len(buf) < SuperblockSize {
		return Superblock{}, claudeerr.New(claudeerr.DomainStorage, claudeerr.KindSerializationError, "superblock shorter than 4096 bytes")
	}
	var sb Superblock
	sb.Version = binary.LittleEndian.Uint16(buf[8:10])
	copy(sb.DeviceUUID[:], buf[10:26])
	copy(sb.ClusterUUID[:], buf[26:42])
	sb.DeviceIndex = binary.LittleEndian.Uint32(buf[42:46])
	sb.Role = Role(buf[46])
	sb.CapacityBlocks = binary.LittleEndian.Uint64(buf[48:56])
	sb.AllocBitmapOffsetBlocks = binary.LittleEndian.Uint64(buf[56:64])
	sb.DataStartOffsetBlocks = binary.LittleEndian.Uint64(buf[64:72])
	sb.CreatedAtSecs = binary.LittleEndian.Uint64(buf[72:80])
	sb.UpdatedAtSecs = binary.LittleEndian.Uint64(buf[80:88])
	sb.MountCount = binary.LittleEndian.Uint32(buf[88:92])
	return sb, nil
}

// Validate checks magic, version, and checksum in that order,
// reporting the first failure.
func Validate(buf []byte) error {
	if len(buf) < SuperblockSize {
		return claudeerr.New(claudeerr.DomainStorage, claudeerr.KindSerializationError, "superblock shorter than 4096 bytes")
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != superblockMagic {
		return claudeerr.New(claudeerr.DomainStorage, claudeerr.KindInvalidMagic, "superblock magic mismatch")
	}
	version := binary.LittleEndian.Uint16(buf[8:10])
	if version != superblockVersion {
		return claudeerr.New(claudeerr.DomainStorage, claudeerr.KindCorruptedSuperblock, "unsupported superblock version")
	}
	stored := binary.LittleEndian.Uint32(buf[4:8])
	zeroed := make([]byte, len(buf))
	copy(zeroed, buf)
	binary.LittleEndian.PutUint32(zeroed[4:8], 0)
	got := crc32.Checksum(zeroed, crc32.MakeTable(crc32.Castagnoli))
	if got != stored {
		return claudeerr.New(claudeerr.DomainStorage, claudeerr.KindChecksumMismatch, "superblock checksum mismatch")
	}
	return nil
}

// IncrementMountCount bumps the mount counter and stamps UpdatedAtSecs.
func (sb *Superblock) IncrementMountCount(nowSecs uint64) {
	sb.MountCount++
	sb.UpdatedAtSecs = nowSecs
}

// IsSameCluster compares cluster UUIDs byte-wise.
func (sb Superblock) IsSameCluster(clusterUUID [16]byte) bool {
	return bytes.Equal(sb.ClusterUUID[:], clusterUUID[:])
}
