package helper

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// Progress reports per-file ingest progress on stderr. A nil *Progress is a
// valid no-op reporter.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress returns a bar over total items, or nil when disabled.
func NewProgress(enabled bool, total int, desc string) *Progress {
	if !enabled || total <= 0 {
		return nil
	}
	return &Progress{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)}
}

func (p *Progress) Describe(desc string) {
	if p == nil {
		return
	}
	p.bar.Describe(desc)
}

func (p *Progress) Increment() {
	if p == nil {
		return
	}
	_ = p.bar.Add(1)
}

func (p *Progress) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}
