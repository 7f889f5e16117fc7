package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"hologram/internal/library"
)

const defaultTermWidth = 80

// progressDisplay redraws a single status line on a terminal.
type progressDisplay struct {
	mu    sync.Mutex
	w     io.Writer
	tty   bool
	width int
	drawn bool
}

func newProgressDisplay(f *os.File) *progressDisplay {
	d := &progressDisplay{w: f, width: defaultTermWidth}
	fd := int(f.Fd())
	if term.IsTerminal(fd) {
		d.tty = true
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			d.width = w
		}
	}
	return d
}

func (d *progressDisplay) enabled() bool {
	return d.tty
}

func (d *progressDisplay) update(p library.ScanProgress) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprint(d.w, "\r"+progressLine(p, d.width))
	d.drawn = true
}

func (d *progressDisplay) finish() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.drawn {
		fmt.Fprint(d.w, "\r"+strings.Repeat(" ", d.width-1)+"\r")
		d.drawn = false
	}
}

// progressLine renders p padded or truncated to exactly width-1 columns.
func progressLine(p library.ScanProgress, width int) string {
	if width < 20 {
		width = 20
	}
	line := fmt.Sprintf("%-11s %d/%d %5.1f%%", p.Phase, p.Current, p.Total, p.Percentage)
	if p.CurrentFile != nil {
		line += "  " + *p.CurrentFile
	}

	limit := width - 1
	runes := []rune(line)
	if len(runes) > limit {
		return string(runes[:limit-3]) + "..."
	}
	return line + strings.Repeat(" ", limit-len(runes))
}
