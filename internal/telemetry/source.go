package telemetry

import (
	"bufio"
	"context"
	"io"
)

// Source delivers raw text frames until ctx is cancelled or the transport fails.
type Source interface {
	Run(ctx context.Context, frames chan<- string) error
}

// ReadFrames scans newline-delimited frames from r and sends them on frames.
// It returns nil at EOF and ctx.Err() on cancellation.
func ReadFrames(ctx context.Context, r io.Reader, frames chan<- string) error {
	scan := bufio.NewScanner(r)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking Scan runs apart from the select below so cancellation is
	// observed even while the reader is idle.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-scanErrChan:
			return err
		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
					return nil
				}
			}
			select {
			case frames <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
