package protocol

import (
	"fmt"
	"strings"
)

// FrameKind discriminates decoded radio messages
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameFrequency
	FrameMode
	FramePTT
)

// Frame represents one decoded message from the radio. Exactly the
// fields implied by Kind are meaningful; a Frame is consumed
// immediately after decode and never retained.
type Frame struct {
	Kind      FrameKind
	Frequency int64  // Hz, FrameFrequency only
	Mode      string // canonical label, FrameMode only
	Width     int    // passband hint in Hz, FrameMode only (0 if unknown)
	PTT       bool   // FramePTT only
}

// Codec translates between a vendor wire protocol and the three
// semantic fields (frequency, mode, PTT).
type Codec interface {
	// PollCommands returns the fixed set of read requests issued on
	// each poll tick.
	PollCommands() [][]byte

	// Decode accumulates data into an internal receive buffer and
	// returns one Frame per complete message. Partial trailing data
	// stays buffered across calls.
	Decode(data []byte) []Frame

	// EncodeFrequency builds a set-frequency command. ok is false when
	// hz is outside the protocol's representable range; the value is
	// never truncated.
	EncodeFrequency(hz int64) (frame []byte, ok bool)

	// EncodeMode builds a set-mode command. ok is false for an unknown
	// mode label.
	EncodeMode(mode string) (frame []byte, ok bool)

	// EncodePTT builds a transmit on/off command.
	EncodePTT(on bool) []byte
}

// Canonical mode labels shared across vendor tables.
const (
	ModeLSB     = "LSB"
	ModeUSB     = "USB"
	ModeCW      = "CW"
	ModeCWR     = "CW-R"
	ModeAM      = "AM"
	ModeAMN     = "AM-N"
	ModeFM      = "FM"
	ModeFMN     = "FM-N"
	ModeWFM     = "WFM"
	ModeRTTY    = "RTTY"
	ModeRTTYR   = "RTTY-R"
	ModeDataUSB = "DATA-USB"
	ModeDataLSB = "DATA-LSB"
	ModeDataFM  = "DATA-FM"
	ModeC4FM    = "C4FM"
	ModeDV      = "DV"
)

// ModeWidth returns a nominal passband width in Hz for a mode label,
// or 0 when no sensible default exists (unmapped vendor codes).
func ModeWidth(mode string) int {
	switch mode {
	case ModeUSB, ModeLSB:
		return 2800
	case ModeCW, ModeCWR:
		return 500
	case ModeRTTY, ModeRTTYR:
		return 500
	case ModeDataUSB, ModeDataLSB:
		return 3000
	case ModeAM:
		return 6000
	case ModeAMN:
		return 3000
	case ModeFM, ModeDataFM, ModeC4FM, ModeDV:
		return 12000
	case ModeFMN:
		return 9000
	case ModeWFM:
		return 200000
	default:
		return 0
	}
}

// New builds the codec for a vendor brand. civAddress is only
// meaningful for Icom CI-V and ignored by the text dialects. An
// unknown brand is a configuration fault and the caller is expected
// to treat the error as fatal.
func New(brand string, civAddress byte) (Codec, error) {
	switch strings.ToLower(brand) {
	case "yaesu":
		return newCATCodec(yaesuDialect), nil
	case "kenwood":
		return newCATCodec(kenwoodDialect), nil
	case "elecraft":
		return newCATCodec(elecraftDialect), nil
	case "icom":
		return newCIVCodec(civAddress), nil
	default:
		return nil, fmt.Errorf("unknown radio brand %q (supported: yaesu, kenwood, elecraft, icom)", brand)
	}
}
