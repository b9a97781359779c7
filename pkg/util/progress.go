package util

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar provides a simple terminal progress bar. When the total is
// unknown (zero or negative, as with piped stdin) it renders a running
// byte counter instead of a percentage bar.
type ProgressBar struct {
	mu       sync.Mutex
	total    int64
	current  int64
	start    time.Time
	prefix   string
	width    int
	writer   io.Writer
	lastDraw time.Time
	finished bool
}

// NewProgressBar creates a new progress bar writing to w
func NewProgressBar(total int64, prefix string, w io.Writer) *ProgressBar {
	return &ProgressBar{
		total:  total,
		prefix: prefix,
		width:  40,
		writer: w,
		start:  time.Now(),
	}
}

// Add increments the progress
func (p *ProgressBar) Add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current += n
	if p.total > 0 && p.current > p.total {
		p.current = p.total
	}

	// Throttle updates to avoid excessive redraws
	if time.Since(p.lastDraw) < 100*time.Millisecond && p.current != p.total {
		return
	}

	p.draw()
	p.lastDraw = time.Now()
}

// SetTotal sets the total progress value, for streams whose size is
// learned after the bar is created
func (p *ProgressBar) SetTotal(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.draw()
}

// Finish draws the final state and moves to a fresh line. Safe to call
// more than once.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.finished {
		return
	}
	p.finished = true

	if p.total > 0 {
		p.current = p.total
	}
	p.draw()
	fmt.Fprintln(p.writer)
}

// draw renders the progress bar
func (p *ProgressBar) draw() {
	elapsed := time.Since(p.start)
	speed := ""
	if elapsed > 0 && p.current > 0 {
		bytesPerSec := float64(p.current) / elapsed.Seconds()
		speed = fmt.Sprintf(" %s/s", FormatSize(int64(bytesPerSec)))
	}

	if p.total <= 0 {
		fmt.Fprintf(p.writer, "\r%s %s%s", p.prefix, FormatSize(p.current), speed)
		return
	}

	percent := float64(p.current) / float64(p.total) * 100

	filled := int(float64(p.width) * float64(p.current) / float64(p.total))
	if filled > p.width {
		filled = p.width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)

	eta := ""
	if p.current > 0 && p.current < p.total {
		bytesPerSec := float64(p.current) / elapsed.Seconds()
		if bytesPerSec > 0 {
			remainingSecs := float64(p.total-p.current) / bytesPerSec
			eta = fmt.Sprintf(" ETA: %s", FormatDuration(time.Duration(remainingSecs)*time.Second))
		}
	}

	fmt.Fprintf(p.writer, "\r%s [%s] %.1f%% %s/%s%s%s",
		p.prefix,
		bar,
		percent,
		FormatSize(p.current),
		FormatSize(p.total),
		speed,
		eta,
	)
}

// FormatDuration formats a duration to a human-readable string
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return "< 1s"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// ProgressReader wraps an io.Reader to track progress
type ProgressReader struct {
	reader io.Reader
	bar    *ProgressBar
}

// NewProgressReader creates a reader that reports progress to w as it is
// consumed. Pass a non-positive total for streams of unknown length.
func NewProgressReader(r io.Reader, total int64, prefix string, w io.Writer) *ProgressReader {
	return &ProgressReader{
		reader: r,
		bar:    NewProgressBar(total, prefix, w),
	}
}

// Read implements io.Reader and updates progress
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.bar.Add(int64(n))
	}
	if err == io.EOF {
		pr.bar.Finish()
	}
	return n, err
}

// Finish completes the underlying bar, for readers abandoned before EOF
func (pr *ProgressReader) Finish() {
	pr.bar.Finish()
}
