package cli

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Progress renders a progress bar for long loads.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress creates a bar on w counting total items of the given unit.
// A total of zero or less is unknown until the first Update. A nil w gives
// a bar that renders nothing.
func NewProgress(w io.Writer, description, unit string, total int) *Progress {
	if w == nil {
		return &Progress{}
	}
	if total <= 0 {
		total = -1
	}
	return &Progress{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(unit),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionOnCompletion(func() { io.WriteString(w, "\n") }),
	)}
}

// Update moves the bar to done of total. Its signature matches the
// Progress hooks of the face and voice loaders.
func (p *Progress) Update(done, total int) {
	if p.bar == nil {
		return
	}
	if int64(total) != p.bar.GetMax64() {
		p.bar.ChangeMax(total)
	}
	_ = p.bar.Set(done)
}

// Finish completes the bar.
func (p *Progress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}
