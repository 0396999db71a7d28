package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

type Spinner struct {
	out      io.Writer
	chars    []string
	index    int
	message  string
	stop     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
	disabled bool // non-interactive output and tests
}

func NewSpinner(out io.Writer) *Spinner {
	return &Spinner{
		out:   out,
		chars: []string{"|", "/", "-", "\\"},
	}
}

// Disable prevents the spinner from showing any output
func (s *Spinner) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = true
}

func (s *Spinner) Start(message string) {
	s.mu.Lock()
	if s.disabled || s.running {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	s.running = true
	s.message = message
	stop := s.stop
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				s.mu.Lock()
				fmt.Fprintf(s.out, "\r%s... Done!     \n", s.message)
				s.mu.Unlock()
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.out, "\r%s... %s", s.message, s.chars[s.index])
				s.index = (s.index + 1) % len(s.chars)
				s.mu.Unlock()
			}
		}
	}()
}

func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	close(s.stop)
	s.running = false
	s.mu.Unlock()
	s.wg.Wait()
}
