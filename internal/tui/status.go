package tui

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// StatusWriter keeps a single spinner line updated in place while a long
// step such as the conda bootstrap runs.
type StatusWriter struct {
	w       io.Writer
	mu      sync.Mutex
	message string
	start   time.Time
	done    chan struct{}
	exited  chan struct{}
	stopped bool
}

// NewStatusWriter starts redrawing msg on w every 100ms.
func NewStatusWriter(w io.Writer, msg string) *StatusWriter {
	sw := &StatusWriter{
		w:       w,
		message: msg,
		start:   time.Now(),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go sw.loop()
	return sw
}

// Update replaces the message and restarts the elapsed timer.
func (sw *StatusWriter) Update(msg string) {
	sw.mu.Lock()
	sw.message = msg
	sw.start = time.Now()
	sw.mu.Unlock()
}

// Stop clears the spinner. A non-empty final line is printed in its place
// with the elapsed time appended.
func (sw *StatusWriter) Stop(final string) {
	sw.mu.Lock()
	if sw.stopped {
		sw.mu.Unlock()
		return
	}
	sw.stopped = true
	elapsed := time.Since(sw.start)
	sw.mu.Unlock()

	close(sw.done)
	<-sw.exited
	fmt.Fprint(sw.w, "\r\033[K")
	if final != "" {
		fmt.Fprintf(sw.w, "%s (%s)\n", final, formatElapsed(elapsed))
	}
}

func (sw *StatusWriter) loop() {
	defer close(sw.exited)
	tick := 0
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sw.done:
			return
		case <-ticker.C:
			sw.mu.Lock()
			msg := sw.message
			start := sw.start
			sw.mu.Unlock()

			frame := spinnerFrames[tick%len(spinnerFrames)]
			tick++
			fmt.Fprintf(sw.w, "\r\033[K%s %s (%s)", frame, msg, formatElapsed(time.Since(start)))
		}
	}
}

func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < 10*time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}
