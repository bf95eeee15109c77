// Package bar renders export progress as a terminal progress bar. It adapts
// the progress.Sink interface to schollz/progressbar and keeps the terminal
// dependency out of the core pipeline.
package bar

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// Bar is a progress.Sink backed by a terminal progress bar. The zero value
// is usable; the bar is created on Start.
type Bar struct {
	bar *progressbar.ProgressBar
}

// New returns a terminal progress sink.
func New() *Bar { return &Bar{} }

// Start creates the bar. A negative total renders a spinner with a running
// count instead of a percentage.
func (b *Bar) Start(total int64) {
	b.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetDescription("exporting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetPredictTime(total >= 0),
	)
}

// Report moves the bar to the absolute row count.
func (b *Bar) Report(done int64) {
	if b.bar != nil {
		_ = b.bar.Set64(done)
	}
}

// Finish completes the bar and moves the cursor to the next line.
func (b *Bar) Finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}
