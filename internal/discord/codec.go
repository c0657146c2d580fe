package discord

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// Discord's local IPC protocol frames JSON payloads with an 8-byte header:
// opcode and payload length, both little-endian uint32.
const (
	opHandshake uint32 = 0
	opFrame     uint32 = 1
	opClose     uint32 = 2
)

const headerLen = 8

// maxFrameLen caps accepted payloads at 1 MiB, matching what the peer
// itself enforces. Anything larger is a corrupt stream.
const maxFrameLen = 1 << 20

func writeFrame(w io.Writer, op uint32, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	buf := make([]byte, headerLen+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], op)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[headerLen:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func readFrame(r io.Reader) (uint32, []byte, error) {
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("read frame header: %w", err)
	}
	op := binary.LittleEndian.Uint32(header[0:4])
	length := binary.LittleEndian.Uint32(header[4:8])
	if length == 0 || length > maxFrameLen {
		return 0, nil, fmt.Errorf("invalid frame length %d", length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("read frame payload: %w", err)
	}
	return op, payload, nil
}
