package cliutil

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Progress reports streaming progress to a terminal; it is a silent no-op
// when the destination isn't a TTY (piped output, CI logs), per spec.md's
// note that progress reporting is a CLI-edge concern only.
type Progress interface {
	Update(bytesRead uint64, statements int)
	Done()
}

type ttyProgress struct {
	bar   *progressbar.ProgressBar
	label string
}

type noopProgress struct{}

func (noopProgress) Update(uint64, int) {}
func (noopProgress) Done()              {}

// NewProgress returns a ttyProgress bound to out when out is a terminal,
// otherwise a silent noopProgress.
func NewProgress(out *os.File, label string) Progress {
	if out == nil || !term.IsTerminal(int(out.Fd())) {
		return noopProgress{}
	}
	bar := progressbar.NewOptions64(-1,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetItsString("stmt"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionThrottle(100),
	)
	return &ttyProgress{bar: bar, label: label}
}

func (p *ttyProgress) Update(bytesRead uint64, statements int) {
	p.bar.Set64(int64(bytesRead))
	p.bar.Describe(p.label)
}

func (p *ttyProgress) Done() {
	p.bar.Finish()
}
