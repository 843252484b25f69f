package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"repoup/internal/update"
)

const defaultSpinnerInterval = 120 * time.Millisecond

// stepSpinner draws a one-line progress indicator for `apply`.
type stepSpinner struct {
	writer        io.Writer
	frameInterval time.Duration
	frames        []rune

	steps  chan update.Step
	stopCh chan struct{}
	doneCh chan struct{}
	once   sync.Once

	mu       sync.Mutex
	frameIdx int
}

func newStepSpinner(w io.Writer, frameInterval time.Duration) *stepSpinner {
	if w == nil {
		w = io.Discard
	}
	if frameInterval <= 0 {
		frameInterval = defaultSpinnerInterval
	}
	sp := &stepSpinner{
		writer:        w,
		frameInterval: frameInterval,
		frames:        []rune{'|', '/', '-', '\\'},
		steps:         make(chan update.Step, 4),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
	go sp.loop()
	return sp
}

// Step switches the message shown next to the spinner.
func (s *stepSpinner) Step(step update.Step) {
	if s == nil {
		return
	}
	select {
	case <-s.stopCh:
		return
	default:
	}
	select {
	case s.steps <- step:
	default:
	}
}

// Stop clears the line and waits for the render loop to exit.
func (s *stepSpinner) Stop() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		close(s.stopCh)
		<-s.doneCh
	})
}

func (s *stepSpinner) loop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.frameInterval)
	defer ticker.Stop()

	var current update.Step
	hasStep := false
	for {
		select {
		case <-s.stopCh:
			if hasStep {
				s.clearLine()
			}
			return
		case step := <-s.steps:
			current = step
			hasStep = true
			s.render(current)
		case <-ticker.C:
			if hasStep {
				s.render(current)
			}
		}
	}
}

func (s *stepSpinner) render(step update.Step) {
	_, _ = fmt.Fprintf(s.writer, "\r\033[2K%c %s", s.nextFrame(), formatStepMessage(step))
}

func (s *stepSpinner) clearLine() {
	_, _ = fmt.Fprint(s.writer, "\r\033[2K")
}

func (s *stepSpinner) nextFrame() rune {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := s.frames[s.frameIdx%len(s.frames)]
	s.frameIdx++
	return frame
}

var stepMessages = map[update.Step]string{
	update.StepUpdate:  "Pulling upstream commits...",
	update.StepRebuild: "Rebuilding...",
}

func formatStepMessage(step update.Step) string {
	msg := stepMessages[step]
	if strings.TrimSpace(msg) == "" {
		return "Working..."
	}
	return msg
}
