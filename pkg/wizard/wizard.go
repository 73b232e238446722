// Package wizard collects a working bridge configuration from the
// operator on first run and hands it back for persisting.
package wizard

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.bug.st/serial"

	"github.com/echo-gravitas/openhamclock/pkg/config"
)

// Wizard provides interactive configuration.
type Wizard struct {
	reader *bufio.Reader
	out    *os.File
}

func New() *Wizard {
	return &Wizard{
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}
}

// Run fills cfg by prompting the operator. Existing values become the
// offered defaults, so re-running the wizard edits rather than resets.
func (w *Wizard) Run(cfg *config.Config) error {
	cfg.ApplyDefaults()

	fmt.Fprintln(w.out)
	fmt.Fprintln(w.out, "  rig-bridge configuration wizard")
	fmt.Fprintln(w.out, "  -------------------------------")
	fmt.Fprintln(w.out)

	cfg.Radio.Brand = w.askChoice("Radio brand", []string{"yaesu", "kenwood", "elecraft", "icom"}, cfg.Radio.Brand)
	cfg.Radio.Model = w.askString("Radio model (e.g. FT-991A, IC-7300)", cfg.Radio.Model)

	device, err := w.askDevice(cfg.Radio.Device)
	if err != nil {
		return err
	}
	cfg.Radio.Device = device

	cfg.Radio.BaudRate = w.askInt("Baud rate", cfg.Radio.BaudRate)
	cfg.Radio.PollInterval = w.askInt("Poll interval (ms)", cfg.Radio.PollInterval)
	cfg.Radio.EnablePTT = w.askBool("Allow transmit (PTT) from the dashboard", cfg.Radio.EnablePTT)
	cfg.Web.Port = w.askInt("HTTP port for the dashboard", cfg.Web.Port)

	fmt.Fprintln(w.out)
	return nil
}

// askDevice scans for serial ports and offers them as a numbered
// list; free-form entry stays possible for unusual device paths.
func (w *Wizard) askDevice(current string) (string, error) {
	ports, err := serial.GetPortsList()
	if err != nil || len(ports) == 0 {
		fmt.Fprintln(w.out, "  No serial ports detected; enter the device path manually.")
		dev := w.askString("Serial device", current)
		if dev == "" {
			return "", fmt.Errorf("a serial device is required")
		}
		return dev, nil
	}

	fmt.Fprintln(w.out, "  Detected serial ports:")
	for i, p := range ports {
		fmt.Fprintf(w.out, "    %d. %s\n", i+1, p)
	}

	for {
		answer := w.askString(fmt.Sprintf("Serial device (1-%d or path)", len(ports)), current)
		if idx, err := strconv.Atoi(answer); err == nil {
			if idx >= 1 && idx <= len(ports) {
				return ports[idx-1], nil
			}
			fmt.Fprintln(w.out, "  Out of range, try again.")
			continue
		}
		if answer != "" {
			return answer, nil
		}
		fmt.Fprintln(w.out, "  A serial device is required.")
	}
}

func (w *Wizard) readLine() string {
	line, _ := w.reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func (w *Wizard) askString(prompt, def string) string {
	if def != "" {
		fmt.Fprintf(w.out, "  %s [%s]: ", prompt, def)
	} else {
		fmt.Fprintf(w.out, "  %s: ", prompt)
	}
	if answer := w.readLine(); answer != "" {
		return answer
	}
	return def
}

func (w *Wizard) askInt(prompt string, def int) int {
	for {
		answer := w.askString(prompt, strconv.Itoa(def))
		n, err := strconv.Atoi(answer)
		if err == nil && n > 0 {
			return n
		}
		fmt.Fprintln(w.out, "  Please enter a positive number.")
	}
}

func (w *Wizard) askBool(prompt string, def bool) bool {
	defStr := "n"
	if def {
		defStr = "y"
	}
	answer := strings.ToLower(w.askString(prompt+" (y/n)", defStr))
	return strings.HasPrefix(answer, "y")
}

func (w *Wizard) askChoice(prompt string, choices []string, def string) string {
	for {
		answer := strings.ToLower(w.askString(fmt.Sprintf("%s (%s)", prompt, strings.Join(choices, ", ")), def))
		for _, c := range choices {
			if answer == c {
				return c
			}
		}
		fmt.Fprintf(w.out, "  Choose one of: %s\n", strings.Join(choices, ", "))
	}
}
