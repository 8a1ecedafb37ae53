package prince

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"
)

// stderrTailLines is how many engine stderr lines are kept for error messages.
const stderrTailLines = 10

// drainGrace bounds the wait for stderr EOF once the engine was told to exit.
// Grandchildren may hold the pipe open longer.
const drainGrace = 2 * time.Second

// stderrDrain reads the engine's stderr until EOF so the engine never blocks
// on a full pipe, passing each line to a callback and keeping the last few.
type stderrDrain struct {
	mu   sync.Mutex
	tail []string
	done chan struct{}
}

func drainStderr(r io.Reader, onLine func(string)) *stderrDrain {
	d := &stderrDrain{done: make(chan struct{})}
	go func() {
		defer close(d.done)
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if line = strings.TrimRight(line, "\r\n"); line != "" {
				d.add(line)
				onLine(line)
			}
			if err != nil {
				return
			}
		}
	}()
	return d
}

func (d *stderrDrain) add(line string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.tail) == stderrTailLines {
		d.tail = d.tail[1:]
	}
	d.tail = append(d.tail, line)
}

// wait blocks until stderr reached EOF or grace elapsed.
func (d *stderrDrain) wait(grace time.Duration) bool {
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-d.done:
		return true
	case <-timer.C:
		return false
	}
}

// String joins the kept lines with "; ".
func (d *stderrDrain) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return strings.Join(d.tail, "; ")
}

// suffix formats the tail for appending to an error message.
func (d *stderrDrain) suffix() string {
	if s := d.String(); s != "" {
		return " (stderr: " + s + ")"
	}
	return ""
}
