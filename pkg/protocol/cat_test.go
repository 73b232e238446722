package protocol

import (
	"testing"
)

func mustCAT(t *testing.T, brand string) *catCodec {
	t.Helper()
	c, err := New(brand, 0)
	if err != nil {
		t.Fatalf("Expected codec for %s, got error: %v", brand, err)
	}
	return c.(*catCodec)
}

func TestCATDecode(t *testing.T) {
	t.Run("Yaesu Status Sequence", func(t *testing.T) {
		c := mustCAT(t, "yaesu")

		frames := c.Decode([]byte("FA014074000;MD03;TX0;"))
		if len(frames) != 3 {
			t.Fatalf("Expected 3 frames, got %d: %+v", len(frames), frames)
		}

		if frames[0].Kind != FrameFrequency || frames[0].Frequency != 14074000 {
			t.Errorf("Expected frequency 14074000, got %+v", frames[0])
		}
		if frames[1].Kind != FrameMode || frames[1].Mode != "CW" {
			t.Errorf("Expected mode CW, got %+v", frames[1])
		}
		if frames[2].Kind != FramePTT || frames[2].PTT {
			t.Errorf("Expected PTT off, got %+v", frames[2])
		}
	})

	t.Run("Split Delivery Matches Contiguous", func(t *testing.T) {
		input := "FA014074000;MD03;TX1;FA007074000;"

		whole := mustCAT(t, "yaesu").Decode([]byte(input))

		split := mustCAT(t, "yaesu")
		var frames []Frame
		// one byte at a time simulates worst-case serial delivery
		for i := 0; i < len(input); i++ {
			frames = append(frames, split.Decode([]byte{input[i]})...)
		}

		if len(frames) != len(whole) {
			t.Fatalf("Expected %d frames, got %d", len(whole), len(frames))
		}
		for i := range frames {
			if frames[i] != whole[i] {
				t.Errorf("Frame %d differs: %+v vs %+v", i, frames[i], whole[i])
			}
		}
	})

	t.Run("Partial Command Stays Buffered", func(t *testing.T) {
		c := mustCAT(t, "yaesu")
		if frames := c.Decode([]byte("FA0140740")); len(frames) != 0 {
			t.Fatalf("Expected no frames for partial command, got %d", len(frames))
		}
		frames := c.Decode([]byte("00;"))
		if len(frames) != 1 || frames[0].Frequency != 14074000 {
			t.Errorf("Expected completed frequency frame, got %+v", frames)
		}
	})

	t.Run("Zero Frequency Suppressed", func(t *testing.T) {
		c := mustCAT(t, "yaesu")
		for _, f := range c.Decode([]byte("FA000000000;")) {
			if f.Kind == FrameFrequency {
				t.Errorf("Zero frequency must not produce a frequency frame: %+v", f)
			}
		}
	})

	t.Run("Unmapped Mode Passes Through", func(t *testing.T) {
		c := mustCAT(t, "yaesu")
		frames := c.Decode([]byte("MD0F;"))
		if len(frames) != 1 || frames[0].Kind != FrameMode {
			t.Fatalf("Expected one mode frame, got %+v", frames)
		}
		if frames[0].Mode != "F" {
			t.Errorf("Expected literal mode code F, got %q", frames[0].Mode)
		}
	})

	t.Run("Kenwood Eleven Digit Frequency", func(t *testing.T) {
		c := mustCAT(t, "kenwood")
		frames := c.Decode([]byte("FA00014074000;"))
		if len(frames) != 1 || frames[0].Frequency != 14074000 {
			t.Errorf("Expected frequency 14074000, got %+v", frames)
		}
	})

	t.Run("Kenwood IF Carries Freq Mode And TX", func(t *testing.T) {
		c := mustCAT(t, "kenwood")
		// freq at [2:13], TX flag at [28], mode code at [29]
		status := "IF" + "00007074000" + "0000000000+0000" + "0" + "2" + "000000" + ";"
		frames := c.Decode([]byte(status))
		var gotFreq, gotMode, gotPTT bool
		for _, f := range frames {
			switch f.Kind {
			case FrameFrequency:
				gotFreq = f.Frequency == 7074000
			case FrameMode:
				gotMode = f.Mode == "USB"
			case FramePTT:
				gotPTT = !f.PTT
			}
		}
		if !gotFreq || !gotMode || !gotPTT {
			t.Errorf("IF decode incomplete (freq=%v mode=%v ptt=%v): %+v",
				gotFreq, gotMode, gotPTT, frames)
		}
	})

	t.Run("Noise Without Delimiter Is Bounded", func(t *testing.T) {
		c := mustCAT(t, "yaesu")
		junk := make([]byte, 1024)
		for i := range junk {
			junk[i] = 'x'
		}
		c.Decode(junk)
		if c.buf.Len() > 256 {
			t.Errorf("Receive buffer grew unbounded: %d bytes", c.buf.Len())
		}
	})
}

func TestCATEncode(t *testing.T) {
	t.Run("Frequency Round Trip", func(t *testing.T) {
		for _, brand := range []string{"yaesu", "kenwood", "elecraft"} {
			for _, hz := range []int64{1, 7074000, 14074000, 146520000} {
				c := mustCAT(t, brand)
				frame, ok := c.EncodeFrequency(hz)
				if !ok {
					t.Fatalf("%s: expected %d Hz to encode", brand, hz)
				}
				frames := c.Decode(frame)
				if len(frames) != 1 || frames[0].Frequency != hz {
					t.Errorf("%s: round trip of %d failed: %+v", brand, hz, frames)
				}
			}
		}
	})

	t.Run("Out Of Range Frequency", func(t *testing.T) {
		c := mustCAT(t, "yaesu")
		if _, ok := c.EncodeFrequency(1_000_000_000); ok {
			t.Error("Expected 10-digit frequency to be rejected by 9-digit dialect")
		}
		if _, ok := c.EncodeFrequency(0); ok {
			t.Error("Expected zero frequency to be rejected")
		}
		if _, ok := c.EncodeFrequency(-7074000); ok {
			t.Error("Expected negative frequency to be rejected")
		}
	})

	t.Run("Mode Encoding", func(t *testing.T) {
		c := mustCAT(t, "yaesu")
		frame, ok := c.EncodeMode("USB")
		if !ok || string(frame) != "MD02;" {
			t.Errorf("Expected MD02; got %q ok=%v", frame, ok)
		}

		k := mustCAT(t, "kenwood")
		frame, ok = k.EncodeMode("cw")
		if !ok || string(frame) != "MD3;" {
			t.Errorf("Expected MD3; got %q ok=%v", frame, ok)
		}

		if _, ok := c.EncodeMode("NOSUCH"); ok {
			t.Error("Expected unknown mode label to be rejected")
		}
	})

	t.Run("PTT Encoding", func(t *testing.T) {
		if got := string(mustCAT(t, "yaesu").EncodePTT(true)); got != "TX1;" {
			t.Errorf("Expected TX1; got %q", got)
		}
		if got := string(mustCAT(t, "kenwood").EncodePTT(false)); got != "RX;" {
			t.Errorf("Expected RX; got %q", got)
		}
	})

	t.Run("Poll Commands", func(t *testing.T) {
		cmds := mustCAT(t, "yaesu").PollCommands()
		if len(cmds) != 3 {
			t.Fatalf("Expected 3 poll commands, got %d", len(cmds))
		}
		if string(cmds[0]) != "FA;" || string(cmds[1]) != "MD0;" || string(cmds[2]) != "TX;" {
			t.Errorf("Unexpected poll set: %q %q %q", cmds[0], cmds[1], cmds[2])
		}

		kcmds := mustCAT(t, "kenwood").PollCommands()
		if string(kcmds[2]) != "IF;" {
			t.Errorf("Kenwood should poll IF for transmit status, got %q", kcmds[2])
		}
	})
}

func TestNewCodec(t *testing.T) {
	if _, err := New("collins", 0); err == nil {
		t.Error("Expected error for unknown brand")
	}
	if _, err := New("Yaesu", 0); err != nil {
		t.Errorf("Brand lookup should be case-insensitive: %v", err)
	}
}
