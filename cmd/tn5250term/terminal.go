package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/stlalpha/tn5250term/internal/display"
)

// localTerminal owns the local console's raw mode and screen rendering:
// term.MakeRaw on init, term.Restore on Close, raw ANSI escapes for
// clear/cursor-hide rather than a curses-style library (the GUI widget
// layer is an out-of-scope collaborator per spec.md §1 — this is the
// minimal local echo a CLI needs, not a replacement for it).
type localTerminal struct {
	oldState *term.State
	input    chan []byte
	done     chan struct{}
}

func newLocalTerminal() (*localTerminal, error) {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return nil, fmt.Errorf("set raw mode: %w", err)
	}
	t := &localTerminal{
		oldState: oldState,
		input:    make(chan []byte, 64),
		done:     make(chan struct{}),
	}
	fmt.Print("\033[2J\033[H\033[?25l")
	go t.inputLoop()
	return t, nil
}

// Close restores cooked mode and the cursor.
func (t *localTerminal) Close() error {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
	fmt.Print("\033[?25h\033[0m\033[2J\033[H")
	if t.oldState != nil {
		return term.Restore(int(os.Stdin.Fd()), t.oldState)
	}
	return nil
}

// Input returns the channel of raw byte chunks read from stdin.
func (t *localTerminal) Input() <-chan []byte {
	return t.input
}

func (t *localTerminal) inputLoop() {
	buf := make([]byte, 256)
	for {
		select {
		case <-t.done:
			return
		default:
		}
		n, err := os.Stdin.Read(buf)
		if err != nil {
			close(t.input)
			return
		}
		if n == 0 {
			continue
		}
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		select {
		case t.input <- chunk:
		case <-t.done:
			return
		}
	}
}

// Render redraws the entire display buffer to the local terminal: cursor
// home, one row per screen line, SGR reverse-video for cells whose
// attribute carries Reverse (the only SGR mapping this minimal renderer
// bothers with — full color/blink/underline rendition belongs to the
// out-of-scope GUI layer), then positions the hardware cursor.
func Render(buf *display.Buffer) {
	width, height := buf.Dimensions()
	var out []byte
	out = append(out, "\033[H"...)
	for r := 0; r < height; r++ {
		for c := 0; c < width; c++ {
			cell := buf.CellAt(r, c)
			if cell.Attribute.Reverse {
				out = append(out, "\033[7m"...)
				out = append(out, string(cell.Character)...)
				out = append(out, "\033[0m"...)
			} else {
				out = append(out, string(cell.Character)...)
			}
		}
		if r < height-1 {
			out = append(out, "\r\n"...)
		}
	}
	cur := buf.Cursor()
	out = append(out, fmt.Sprintf("\033[%d;%dH", cur.Row+1, cur.Col+1)...)
	os.Stdout.Write(out)
}
