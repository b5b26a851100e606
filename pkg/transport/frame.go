package transport

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/claudefs/claudefs/pkg/claudeerr"
)

const (
	frameMagic  uint32 = 0xCF5F0001
	frameVersion uint8 = 1

	HeaderSize    = 24
	MaxPayload    = 64 * 1024 * 1024
)

// Flags is a bitset carried in byte 5 of the frame header.
type Flags uint8

const (
	FlagResponse   Flags = 1 << 0
	FlagCompressed Flags = 1 << 1
	FlagEncrypted  Flags = 1 << 2
	FlagOneWay     Flags = 1 << 3
)

func (f Flags) Has(bit Flags) bool { return f&bit != 0 }

// Opcode identifies the operation a frame carries, grouped by
// category: metadata 0x01xx, data 0x02xx, control 0x03xx,
// replication 0x04xx.
type Opcode uint16

const (
	OpLookup        Opcode = 0x0101
	OpCreate        Opcode = 0x0102
	OpRead          Opcode = 0x0201
	OpWrite         Opcode = 0x0202
	OpHeartbeat     Opcode = 0x0301
	OpJournalSync   Opcode = 0x0401
)

// Frame is the decoded form of a wire message.
type Frame struct {
	Version   uint8
	Flags     Flags
	Opcode    Opcode
	RequestID uint64
	Payload   []byte
}

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// Encode writes the 24-byte header followed by the payload.
func Encode(f Frame) []byte {
	buf := make([]byte, HeaderSize+len(f.Payload))
	binary.LittleEndian.PutUint32(buf[0:4], frameMagic)
	buf[4] = f.Version
	buf[5] = byte(f.Flags)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(f.Opcode))
	binary.LittleEndian.PutUint64(buf[8:16], f.RequestID)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(len(f.Payload)))
	crc := crc32.Checksum(buf[0:20], crc32cTable)
	binary.LittleEndian.PutUint32(buf[20:24], crc)
	copy(buf[HeaderSize:], f.Payload)
	return buf
}

// Decode rejects a short buffer, bad magic, version mismatch, and an
// over-large payload declaration.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < HeaderSize {
		return Frame{}, claudeerr.New(claudeerr.DomainTransport, claudeerr.KindFrameTooShort, "frame shorter than header")
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != frameMagic {
		return Frame{}, claudeerr.New(claudeerr.DomainTransport, claudeerr.KindBadMagic, "frame magic mismatch")
	}
	version := buf[4]
	if version != frameVersion {
		return Frame{}, claudeerr.New(claudeerr.DomainTransport, claudeerr.KindBadVersion, "unsupported frame version")
	}
	payloadLen := binary.LittleEndian.Uint32(buf[16:20])
	if payloadLen > MaxPayload {
		return Frame{}, claudeerr.New(claudeerr.DomainTransport, claudeerr.KindPayloadTooLarge, "frame payload exceeds 64 MiB")
	}
	wantCRC := binary.LittleEndian.Uint32(buf[20:24])
	gotCRC := crc32.Checksum(buf[0:20], crc32cTable)
	if wantCRC != gotCRC {
		return Frame{}, claudeerr.New(claudeerr.DomainTransport, claudeerr.KindHeaderCRCMismatch, "frame header crc mismatch")
	}
	if uint32(len(buf)-HeaderSize) < payloadLen {
		return Frame{}, claudeerr.New(claudeerr.DomainTransport, claudeerr.KindFrameTooShort, "frame payload shorter than declared length")
	}
	f := Frame{
		Version:   version,
		Flags:     Flags(buf[5]),
		Opcode:    Opcode(binary.LittleEndian.Uint16(buf[6:8])),
		RequestID: binary.LittleEndian.Uint64(buf[8:16]),
		Payload:   append([]byte(nil), buf[HeaderSize:HeaderSize+payloadLen]...),
	}
	return f, nil
}

// MakeResponse builds a reply frame preserving the request id and
// setting the RESPONSE flag.
func MakeResponse(req Frame, payload []byte) Frame {
	return Frame{
		Version:   frameVersion,
		Flags:     req.Flags | FlagResponse,
		Opcode:    req.Opcode,
		RequestID: req.RequestID,
		Payload:   payload,
	}
}

// Validate re-checks a decoded frame's invariants.
func Validate(f Frame) error {
	if f.Version != frameVersion {
		return claudeerr.New(claudeerr.DomainTransport, claudeerr.KindBadVersion, "unsupported frame version")
	}
	if uint32(len(f.Payload)) > MaxPayload {
		return claudeerr.New(claudeerr.DomainTransport, claudeerr.KindPayloadTooLarge, "frame payload exceeds 64 MiB")
	}
	return nil
}
