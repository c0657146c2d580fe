package discord

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"strings"
	"testing"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	in := handshakeRequest{V: 1, ClientID: "12345"}
	if err := writeFrame(&buf, opHandshake, in); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}

	op, payload, err := readFrame(&buf)
	if err != nil {
		t.Fatalf("readFrame: %v", err)
	}
	if op != opHandshake {
		t.Errorf("opcode = %d, want %d", op, opHandshake)
	}

	var out handshakeRequest
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if out != in {
		t.Errorf("round trip gave %+v, want %+v", out, in)
	}
}

func TestFrameHeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, opFrame, map[string]int{"a": 1}); err != nil {
		t.Fatalf("writeFrame: %v", err)
	}

	raw := buf.Bytes()
	if len(raw) < headerLen {
		t.Fatalf("frame shorter than header: %d bytes", len(raw))
	}
	if got := binary.LittleEndian.Uint32(raw[0:4]); got != opFrame {
		t.Errorf("header opcode = %d, want %d", got, opFrame)
	}
	if got := binary.LittleEndian.Uint32(raw[4:8]); int(got) != len(raw)-headerLen {
		t.Errorf("header length = %d, want %d", got, len(raw)-headerLen)
	}
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	header := make([]byte, headerLen)
	binary.LittleEndian.PutUint32(header[0:4], opFrame)
	binary.LittleEndian.PutUint32(header[4:8], maxFrameLen+1)

	_, _, err := readFrame(bytes.NewReader(header))
	if err == nil || !strings.Contains(err.Error(), "invalid frame length") {
		t.Errorf("readFrame error = %v, want invalid frame length", err)
	}
}

func TestReadFrameRejectsZeroLength(t *testing.T) {
	header := make([]byte, headerLen)
	binary.LittleEndian.PutUint32(header[0:4], opFrame)

	_, _, err := readFrame(bytes.NewReader(header))
	if err == nil {
		t.Error("readFrame accepted zero-length frame")
	}
}

func TestReadFrameTruncatedPayload(t *testing.T) {
	header := make([]byte, headerLen)
	binary.LittleEndian.PutUint32(header[0:4], opFrame)
	binary.LittleEndian.PutUint32(header[4:8], 100)

	_, _, err := readFrame(bytes.NewReader(append(header, []byte("{}")...)))
	if err == nil {
		t.Error("readFrame accepted truncated payload")
	}
}
