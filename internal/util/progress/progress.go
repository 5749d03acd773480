package progress

import (
	"log"

	"github.com/schollz/progressbar/v3"
)

// NewSubmissionBar returns a bar sized for a flood run, or nil when the run
// is a single transaction and a bar would just be noise.
func NewSubmissionBar(count uint64) *progressbar.ProgressBar {
	if count <= 1 {
		return nil
	}
	return progressbar.Default(int64(count), "txs submitted")
}

// Add increments the progress bar while safely handling errors.
func Add(bar *progressbar.ProgressBar, n int) {
	if bar == nil || n == 0 {
		return
	}

	if err := bar.Add(n); err != nil {
		log.Printf("failed to update progress bar: %v", err)
	}
}

// Finish completes the bar.
func Finish(bar *progressbar.ProgressBar) {
	if bar == nil {
		return
	}

	if err := bar.Finish(); err != nil {
		log.Printf("failed to finish progress bar: %v", err)
	}
}
