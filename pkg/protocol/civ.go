package protocol

import (
	"bytes"
	"fmt"
)

// CI-V framing bytes. Every frame is
// FE FE <dest> <src> <cmd> [sub] [data...] FD.
const (
	civPreamble   = 0xFE
	civTerminator = 0xFD

	// ControllerAddress is the CI-V address this bridge answers to.
	ControllerAddress = 0xE0

	civBroadcast = 0x00
)

// CI-V command bytes used by the bridge.
const (
	civCmdFreqReport = 0x00 // unsolicited transceive frequency
	civCmdModeReport = 0x01 // unsolicited transceive mode
	civCmdReadFreq   = 0x03
	civCmdReadMode   = 0x04
	civCmdSetFreq    = 0x05
	civCmdSetMode    = 0x06
	civCmdPTT        = 0x1C
)

// civFreqBytes BCD digit pairs carry the frequency, least significant
// pair first: 5 bytes covers 10 decimal digits.
const civFreqBytes = 5

// CIVMaxFrequency is the largest frequency representable in the 5-byte
// packed-decimal field.
const CIVMaxFrequency = 9_999_999_999

var civModeTable = map[byte]string{
	0x00: ModeLSB,
	0x01: ModeUSB,
	0x02: ModeAM,
	0x03: ModeCW,
	0x04: ModeRTTY,
	0x05: ModeFM,
	0x06: ModeWFM,
	0x07: ModeCWR,
	0x08: ModeRTTYR,
	0x17: ModeDV,
}

// civCodec implements Codec for Icom's binary framed protocol.
type civCodec struct {
	radioAddr byte
	buf       []byte
}

func newCIVCodec(radioAddr byte) *civCodec {
	return &civCodec{radioAddr: radioAddr}
}

func (c *civCodec) frame(payload ...byte) []byte {
	f := []byte{civPreamble, civPreamble, c.radioAddr, ControllerAddress}
	f = append(f, payload...)
	return append(f, civTerminator)
}

func (c *civCodec) PollCommands() [][]byte {
	return [][]byte{
		c.frame(civCmdReadFreq),
		c.frame(civCmdReadMode),
		c.frame(civCmdPTT, 0x00),
	}
}

func (c *civCodec) Decode(data []byte) []Frame {
	c.buf = append(c.buf, data...)

	var frames []Frame
	for {
		start := bytes.Index(c.buf, []byte{civPreamble, civPreamble})
		if start < 0 {
			// A buffer with no preamble at all cannot be salvaged,
			// except for a lone trailing FE that may be the first
			// half of the next preamble.
			if n := len(c.buf); n > 0 && c.buf[n-1] == civPreamble {
				c.buf = c.buf[n-1:]
			} else {
				c.buf = nil
			}
			break
		}
		if start > 0 {
			c.buf = c.buf[start:]
		}

		end := bytes.IndexByte(c.buf[2:], civTerminator)
		if end < 0 {
			break // incomplete frame, wait for more bytes
		}
		frame := c.buf[: 2+end+1 : 2+end+1]
		c.buf = c.buf[2+end+1:]

		if f, ok := c.parseFrame(frame); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

// parseFrame decodes one complete FE FE ... FD frame. Frames addressed
// to another controller are dropped without error.
func (c *civCodec) parseFrame(f []byte) (Frame, bool) {
	// preamble(2) + dest + src + cmd + FD
	if len(f) < 6 {
		return Frame{}, false
	}

	dest := f[2]
	if dest != ControllerAddress && dest != civBroadcast {
		return Frame{}, false
	}

	cmd := f[4]
	payload := f[5 : len(f)-1]

	switch cmd {
	case civCmdFreqReport, civCmdReadFreq:
		hz := bcdToFreq(payload)
		if hz <= 0 {
			return Frame{}, false
		}
		return Frame{Kind: FrameFrequency, Frequency: hz}, true

	case civCmdModeReport, civCmdReadMode:
		if len(payload) < 1 {
			return Frame{}, false
		}
		mode := civModeLabel(payload[0])
		return Frame{Kind: FrameMode, Mode: mode, Width: ModeWidth(mode)}, true

	case civCmdPTT:
		// 1C 00 <state>
		if len(payload) < 2 || payload[0] != 0x00 {
			return Frame{Kind: FrameUnknown}, true
		}
		return Frame{Kind: FramePTT, PTT: payload[1] == 0x01}, true
	}

	return Frame{Kind: FrameUnknown}, true
}

func civModeLabel(code byte) string {
	if mode, ok := civModeTable[code]; ok {
		return mode
	}
	return fmt.Sprintf("MODE-%02X", code)
}

func (c *civCodec) EncodeFrequency(hz int64) ([]byte, bool) {
	if hz <= 0 || hz > CIVMaxFrequency {
		return nil, false
	}
	payload := append([]byte{civCmdSetFreq}, freqToBCD(hz)...)
	return c.frame(payload...), true
}

func (c *civCodec) EncodeMode(mode string) ([]byte, bool) {
	for code, label := range civModeTable {
		if label == mode {
			// 06 <mode> <filter>
			return c.frame(civCmdSetMode, code, 0x01), true
		}
	}
	return nil, false
}

func (c *civCodec) EncodePTT(on bool) []byte {
	state := byte(0x00)
	if on {
		state = 0x01
	}
	return c.frame(civCmdPTT, 0x00, state)
}

// freqToBCD packs hz into 5 bytes of little-endian BCD, two decimal
// digits per byte, least significant pair first.
func freqToBCD(hz int64) []byte {
	out := make([]byte, civFreqBytes)
	for i := 0; i < civFreqBytes; i++ {
		lo := byte(hz % 10)
		hz /= 10
		hi := byte(hz % 10)
		hz /= 10
		out[i] = hi<<4 | lo
	}
	return out
}

// bcdToFreq is the exact inverse of freqToBCD for all representable
// frequencies. Non-decimal nibbles yield -1.
func bcdToFreq(b []byte) int64 {
	var hz int64
	mul := int64(1)
	for i := 0; i < len(b); i++ {
		lo := int64(b[i] & 0x0F)
		hi := int64(b[i] >> 4)
		if lo > 9 || hi > 9 {
			return -1
		}
		hz += lo * mul
		mul *= 10
		hz += hi * mul
		mul *= 10
	}
	return hz
}
