package instrument

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sweeney/radmon/internal/gpio"
	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/menu"
	"github.com/sweeney/radmon/internal/status"
)

// PollButtons reads the button lines on every tick, debounces them and
// forwards each press to the instrument. It returns when ctx is cancelled
// or the instrument stops.
func PollButtons(ctx context.Context, reader gpio.Reader, detector *logic.ButtonDetector, tick <-chan time.Time, now func() time.Time, remote *Remote, tracker *status.Tracker) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
		}

		pressed, err := reader.Read()
		if err != nil {
			log.Printf("gpio: read error: %v", err)
			continue
		}

		events := detector.Process(logic.ButtonInput{Pressed: pressed, Time: now()})
		for _, ev := range events {
			b, err := menu.ParseButton(ev.Button)
			if err != nil {
				log.Printf("gpio: %v", err)
				continue
			}
			if err := remote.Do(ctx, Press(b)); err != nil {
				if errors.Is(err, ErrStopped) || ctx.Err() != nil {
					return nil
				}
				log.Printf("gpio: %s: %v", b, err)
			}
		}

		if tracker != nil {
			tracker.SetButtons(detector.IsBaselined(), detector.Presses())
		}
	}
}
