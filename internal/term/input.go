package term

import (
	"bufio"
	"io"
)

// Lines reads r line by line on its own goroutine and delivers each line on
// the returned channel. The channel closes on EOF or read error. Reading
// stdin is not cancellable, so callers select on their context alongside
// the channel instead of waiting for this goroutine to finish.
func Lines(r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			out <- scanner.Text()
		}
	}()
	return out
}
