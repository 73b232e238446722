package protocol

import (
	"fmt"
	"strings"
)

// catDialect describes one text CAT sub-dialect. Commands are ASCII,
// terminated by ';', classified by a 2-3 character prefix.
type catDialect struct {
	name       string
	freqDigits int // FA payload width

	// MD framing: true when a VFO digit sits between "MD" and the
	// mode code ("MD03" vs "MD3").
	modeHasVFO bool
	modeTable  map[byte]string

	// IF status frame layout
	ifFreqStart int
	ifModeIndex int
	ifTXIndex   int // -1 when the dialect's IF carries no TX flag
	ifMinLen    int

	// Transmit status is either polled directly ("TX;") or carried
	// only in the IF frame.
	pollTX bool

	pttOn  string
	pttOff string
}

var yaesuDialect = &catDialect{
	name:       "yaesu",
	freqDigits: 9,
	modeHasVFO: true,
	modeTable: map[byte]string{
		'1': ModeLSB,
		'2': ModeUSB,
		'3': ModeCW,
		'4': ModeFM,
		'5': ModeAM,
		'6': ModeRTTY,
		'7': ModeCWR,
		'8': ModeDataLSB,
		'9': ModeRTTYR,
		'A': ModeDataFM,
		'B': ModeFMN,
		'C': ModeDataUSB,
		'D': ModeAMN,
		'E': ModeC4FM,
	},
	// IF: "IF" mem(3) freq(9) clar(5) rxclar(1) txclar(1) mode(1) ...
	ifFreqStart: 5,
	ifModeIndex: 21,
	ifTXIndex:   -1,
	ifMinLen:    22,
	pollTX:      true,
	pttOn:       "TX1;",
	pttOff:      "TX0;",
}

var kenwoodDialect = &catDialect{
	name:       "kenwood",
	freqDigits: 11,
	modeHasVFO: false,
	modeTable: map[byte]string{
		'1': ModeLSB,
		'2': ModeUSB,
		'3': ModeCW,
		'4': ModeFM,
		'5': ModeAM,
		'6': ModeRTTY,
		'7': ModeCWR,
		'9': ModeRTTYR,
	},
	// IF: "IF" freq(11) step(5) rit(6) rit(1) xit(1) bank(3) tx(1) mode(1) ...
	ifFreqStart: 2,
	ifModeIndex: 29,
	ifTXIndex:   28,
	ifMinLen:    30,
	pollTX:      false,
	pttOn:       "TX;",
	pttOff:      "RX;",
}

var elecraftDialect = &catDialect{
	name:       "elecraft",
	freqDigits: 11,
	modeHasVFO: false,
	modeTable: map[byte]string{
		'1': ModeLSB,
		'2': ModeUSB,
		'3': ModeCW,
		'4': ModeFM,
		'5': ModeAM,
		'6': ModeDataUSB,
		'7': ModeCWR,
		'9': ModeDataLSB,
	},
	ifFreqStart: 2,
	ifModeIndex: 29,
	ifTXIndex:   28,
	ifMinLen:    30,
	pollTX:      false,
	pttOn:       "TX;",
	pttOff:      "RX;",
}

// catCodec implements Codec for the semicolon-terminated text family.
type catCodec struct {
	dialect *catDialect
	buf     strings.Builder
}

func newCATCodec(d *catDialect) *catCodec {
	return &catCodec{dialect: d}
}

func (c *catCodec) PollCommands() [][]byte {
	cmds := [][]byte{[]byte("FA;")}
	if c.dialect.modeHasVFO {
		cmds = append(cmds, []byte("MD0;"))
	} else {
		cmds = append(cmds, []byte("MD;"))
	}
	if c.dialect.pollTX {
		cmds = append(cmds, []byte("TX;"))
	} else {
		// transmit status rides in the IF frame
		cmds = append(cmds, []byte("IF;"))
	}
	return cmds
}

func (c *catCodec) Decode(data []byte) []Frame {
	c.buf.Write(data)

	var frames []Frame
	for {
		full := c.buf.String()
		idx := strings.Index(full, ";")
		if idx < 0 {
			// No delimiter in sight; cap runaway noise.
			if c.buf.Len() > 256 {
				c.buf.Reset()
				c.buf.WriteString(full[len(full)-64:])
			}
			break
		}

		cmd := full[:idx]
		c.buf.Reset()
		c.buf.WriteString(full[idx+1:])

		frames = append(frames, c.parseCommand(cmd)...)
	}
	return frames
}

// parseCommand classifies one complete delimiter-stripped command.
func (c *catCodec) parseCommand(cmd string) []Frame {
	if len(cmd) < 2 {
		return nil
	}

	switch {
	case strings.HasPrefix(cmd, "IF"):
		return c.parseIF(cmd)

	case strings.HasPrefix(cmd, "FA"):
		if hz, ok := parseDigits(cmd[2:]); ok && hz > 0 {
			return []Frame{{Kind: FrameFrequency, Frequency: hz}}
		}
		return nil

	case strings.HasPrefix(cmd, "MD"):
		code := cmd[2:]
		if c.dialect.modeHasVFO && len(code) > 1 {
			code = code[1:]
		}
		if len(code) != 1 {
			return []Frame{{Kind: FrameUnknown}}
		}
		mode := c.modeLabel(code[0])
		return []Frame{{Kind: FrameMode, Mode: mode, Width: ModeWidth(mode)}}

	case strings.HasPrefix(cmd, "TX"):
		on := len(cmd) > 2 && cmd[2] != '0'
		return []Frame{{Kind: FramePTT, PTT: on}}

	case cmd == "RX":
		return []Frame{{Kind: FramePTT, PTT: false}}
	}

	return []Frame{{Kind: FrameUnknown}}
}

// parseIF extracts frequency, mode and (dialect permitting) transmit
// status from the extended status report.
func (c *catCodec) parseIF(cmd string) []Frame {
	d := c.dialect
	if len(cmd) < d.ifMinLen {
		return []Frame{{Kind: FrameUnknown}}
	}

	var frames []Frame
	if hz, ok := parseDigits(cmd[d.ifFreqStart : d.ifFreqStart+d.freqDigits]); ok && hz > 0 {
		frames = append(frames, Frame{Kind: FrameFrequency, Frequency: hz})
	}
	mode := c.modeLabel(cmd[d.ifModeIndex])
	frames = append(frames, Frame{Kind: FrameMode, Mode: mode, Width: ModeWidth(mode)})
	if d.ifTXIndex >= 0 {
		frames = append(frames, Frame{Kind: FramePTT, PTT: cmd[d.ifTXIndex] == '1'})
	}
	return frames
}

// modeLabel maps a protocol code to its canonical label. Unmapped
// codes pass through as a literal so equipment-specific extensions
// remain observable.
func (c *catCodec) modeLabel(code byte) string {
	if mode, ok := c.dialect.modeTable[code]; ok {
		return mode
	}
	return string(code)
}

func (c *catCodec) EncodeFrequency(hz int64) ([]byte, bool) {
	max := int64(1)
	for i := 0; i < c.dialect.freqDigits; i++ {
		max *= 10
	}
	if hz <= 0 || hz >= max {
		return nil, false
	}
	return []byte(fmt.Sprintf("FA%0*d;", c.dialect.freqDigits, hz)), true
}

func (c *catCodec) EncodeMode(mode string) ([]byte, bool) {
	want := strings.ToUpper(strings.TrimSpace(mode))
	for code, label := range c.dialect.modeTable {
		if label == want {
			if c.dialect.modeHasVFO {
				return []byte(fmt.Sprintf("MD0%c;", code)), true
			}
			return []byte(fmt.Sprintf("MD%c;", code)), true
		}
	}
	return nil, false
}

func (c *catCodec) EncodePTT(on bool) []byte {
	if on {
		return []byte(c.dialect.pttOn)
	}
	return []byte(c.dialect.pttOff)
}

// parseDigits converts a fixed-width decimal field. ok is false when
// any character is not a digit.
func parseDigits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	var n int64
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		n = n*10 + int64(ch-'0')
	}
	return n, true
}
