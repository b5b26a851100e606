package blockstore

import (
	"encoding/binary"
	"fmt"

	"github.com/claudefs/claudefs/pkg/checksum"
	"github.com/claudefs/claudefs/pkg/claudeerr"
)

const (
	blockMagic   uint32 = 0x434C4653
	blockVersion uint8  = 1
	headerSize          = 64
)

// SizeClass is the power-of-two allocation unit a block belongs to.
type SizeClass uint8

const (
	Size4K  SizeClass = 0
	Size64K SizeClass = 1
	Size1M  SizeClass = 2
)

// Bytes returns the data-region size in bytes for the class, not
// counting the 64-byte header.
func (c SizeClass) Bytes() (int, error) {
	switch c {
	case Size4K:
		return 4*1024 - headerSize, nil
	case Size64K:
		return 64*1024 - headerSize, nil
	case Size1M:
		return 1024*1024 - headerSize, nil
	default:
		return 0, claudeerr.New(claudeerr.DomainStorage, claudeerr.KindSerializationError, fmt.Sprintf("unknown block size class %d", c))
	}
}

// BlockId is an opaque (device, offset) pair. The Display form is
// stable and suitable for logging.
type BlockId struct {
	DeviceIndex uint32
	Offset      uint64
}

func (b BlockId) String() string {
	return fmt.Sprintf("dev=%d:off=%d", b.DeviceIndex, b.Offset)
}

// Header is the 64-byte fixed prefix carried by every block on disk.
type Header struct {
	Version         uint8
	SizeClass       SizeClass
	ChecksumAlgo    checksum.Algorithm
	ChecksumValue   uint64
	Sequence        uint64
	TimestampSecs   uint64
}

// EncodeBlock computes the data checksum, builds the header, and
// concatenates header+data ready to write to disk.
func EncodeBlock(sizeClass SizeClass, algo checksum.Algorithm, data []byte, sequence, timestampSecs uint64) []byte {
	sum := checksum.Compute(algo, data)
	h := Header{
		Version:       blockVersion,
		SizeClass:     sizeClass,
		ChecksumAlgo:  algo,
		ChecksumValue: sum.Value,
		Sequence:      sequence,
		TimestampSecs: timestampSecs,
	}
	buf := make([]byte, headerSize+len(data))
	encodeHeader(buf[:headerSize], h)
	copy(buf[headerSize:], data)
	return buf
}

// DecodeBlock parses the header from the first 64 bytes of buf,
// rejects a bad magic, and verifies the checksum against the
// remainder.
func DecodeBlock(buf []byte) (Header, []byte, error) {
	if len(buf) < headerSize {
		return Header{}, nil, claudeerr.New(claudeerr.DomainStorage, claudeerr.KindSerializationError, "block shorter than header")
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != blockMagic {
		return Header{}, nil, claudeerr.New(claudeerr.DomainStorage, claudeerr.KindInvalidMagic, "block header magic mismatch")
	}
	h := decodeHeader(buf[:headerSize])
	data := buf[headerSize:]
	want := checksum.Checksum{Algorithm: h.ChecksumAlgo, Value: h.ChecksumValue}
	if !checksum.Verify(want, data) {
		return Header{}, nil, claudeerr.New(claudeerr.DomainStorage, claudeerr.KindChecksumMismatch, "block data checksum mismatch")
	}
	return h, data, nil
}

func encodeHeader(buf []byte, h Header) {
	binary.LittleEndian.PutUint32(buf[0:4], blockMagic)
	buf[4] = h.Version
	buf[5] = byte(h.SizeClass)
	buf[6] = byte(h.ChecksumAlgo)
	buf[7] = 0 // reserved
	binary.LittleEndian.PutUint64(buf[8:16], h.ChecksumValue)
	binary.LittleEndian.PutUint64(buf[16:24], h.Sequence)
	binary.LittleEndian.PutUint64(buf[24:32], h.TimestampSecs)
	for i := 32; i < headerSize; i++ {
		buf[i] = 0
	}
}

func decodeHeader(buf []byte) Header {
	return Header{
		Version:       buf[4],
		SizeClass:     SizeClass(buf[5]),
		ChecksumAlgo:  checksum.Algorithm(buf[6]),
		ChecksumValue: binary.LittleEndian.Uint64(buf[8:16]),
		Sequence:      binary.LittleEndian.Uint64(buf[16:24]),
		TimestampSecs: binary.LittleEndian.Uint64(buf[24:32]),
	}
}
