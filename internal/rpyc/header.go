package rpyc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Magic identifies a slot-table container. Older archives skip the header
// entirely and start with a raw zlib stream.
const Magic = "RENPY RPC2"

const (
	// payloadSlot holds the serialized statement graph.
	payloadSlot = 1

	// DefaultDecompressionCeiling bounds how many bytes a single archive may
	// inflate to.
	DefaultDecompressionCeiling = 64 << 20

	maxSlots = 64
)

// slot is one entry of the container directory.
type slot struct {
	ID     uint32
	Start  uint32
	Length uint32
}

// Payload locates and inflates the serialized graph of one archive. The raw
// archive bytes are the only input; limit caps the inflated size and falls
// back to DefaultDecompressionCeiling when zero.
func Payload(data []byte, file string, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultDecompressionCeiling
	}

	if len(data) >= len(Magic) && string(data[:len(Magic)]) == Magic {
		return slotPayload(data, file, limit)
	}

	// Legacy archives are a bare zlib stream.
	if len(data) >= 2 && looksLikeZlib(data) {
		return inflate(data, file, limit)
	}

	return nil, &FormatError{File: file, Reason: "unrecognized container magic"}
}

func slotPayload(data []byte, file string, limit int64) ([]byte, error) {
	body := data[len(Magic):]
	rd := bytes.NewReader(body)

	for i := 0; i < maxSlots; i++ {
		var s slot
		if err := binary.Read(rd, binary.LittleEndian, &s); err != nil {
			return nil, &FormatError{File: file, Reason: "truncated slot table"}
		}
		if s.ID == 0 {
			break
		}
		if s.ID != payloadSlot {
			continue
		}
		end := int64(s.Start) + int64(s.Length)
		if int64(s.Start) > int64(len(data)) || end > int64(len(data)) {
			return nil, &FormatError{
				File:   file,
				Reason: fmt.Sprintf("slot %d spans [%d:%d] beyond %d archive bytes", s.ID, s.Start, end, len(data)),
			}
		}
		return inflate(data[s.Start:end], file, limit)
	}

	return nil, &FormatError{File: file, Reason: "no payload slot in container directory"}
}

// looksLikeZlib checks the two-byte stream header: deflate method plus a
// valid check value.
func looksLikeZlib(data []byte) bool {
	if data[0]&0x0f != 8 {
		return false
	}
	return (uint16(data[0])<<8|uint16(data[1]))%31 == 0
}

func inflate(compressed []byte, file string, limit int64) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, &FormatError{File: file, Reason: fmt.Sprintf("zlib stream: %v", err)}
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, &FormatError{File: file, Reason: fmt.Sprintf("inflate: %v", err)}
	}
	if int64(len(out)) > limit {
		return nil, &FormatError{File: file, Reason: fmt.Sprintf("inflated payload exceeds %d byte ceiling", limit)}
	}
	return out, nil
}
