package instrument

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sweeney/radmon/internal/logic"
)

// ErrStopped is returned by a Remote once the loop has exited.
var ErrStopped = errors.New("instrument stopped")

type request struct {
	action *Action
	reply  chan result
}

type result struct {
	csv []byte
	err error
}

// Run processes frames, timers and remote requests until ctx is cancelled.
// displayTick drives the display refresh (normally a 1 Hz ticker). The
// integrator timer follows the current time constant and the blink ticker
// runs only while the alarm is active.
func (i *Instrument) Run(ctx context.Context, frames <-chan string, displayTick <-chan time.Time) error {
	defer close(i.done)

	integ := time.NewTimer(i.untilIntegrator(i.deps.Now()))
	defer integ.Stop()

	var blink *time.Ticker
	var blinkC <-chan time.Time
	defer func() {
		if blink != nil {
			blink.Stop()
		}
	}()

	log.Printf("instrument: running unit=%s set_point=%.0f mode=%s", i.live.Unit, i.live.AlarmSetPoint, i.live.CumDoseMode)

	for {
		select {
		case <-ctx.Done():
			i.silence()
			log.Printf("instrument: stopped after %d samples, %d log entries", i.cond.Samples(), i.log.Len())
			return nil

		case frame, ok := <-frames:
			if !ok {
				log.Printf("instrument: telemetry closed")
				frames = nil
				continue
			}
			i.HandleFrame(frame, i.deps.Now())

		case <-displayTick:
			i.HandleDisplayTick(i.deps.Now())

		case <-integ.C:
			i.HandleIntegratorTick(i.deps.Now())

		case <-blinkC:
			i.HandleBlink()

		case req := <-i.requests:
			req.reply <- i.serve(req)
		}

		integ.Reset(i.untilIntegrator(i.deps.Now()))

		switch active := i.alarm.Active(); {
		case active && blink == nil:
			blink = time.NewTicker(logic.BlinkInterval)
			blinkC = blink.C
		case !active && blink != nil:
			blink.Stop()
			blink, blinkC = nil, nil
		}
	}
}

func (i *Instrument) serve(req request) result {
	if req.action == nil {
		return result{csv: i.CSV()}
	}
	return result{err: i.HandleAction(*req.action, i.deps.Now())}
}

// untilIntegrator is the wait before the integrator is next due. Before the
// first sample it just polls at the display rate.
func (i *Instrument) untilIntegrator(now time.Time) time.Duration {
	if i.cond.Samples() == 0 {
		return logic.DisplayRefresh
	}
	return max(i.dose.NextDue(i.cond.TimeConstant()).Sub(now), 0)
}

func (i *Instrument) silence() {
	if i.deps.Outputs == nil || !i.alarm.Active() {
		return
	}
	if err := i.deps.Outputs.Buzzer(false); err != nil {
		log.Printf("instrument: buzzer: %v", err)
	}
}

// Remote is the handle other goroutines use to reach a running Instrument.
type Remote struct {
	requests chan<- request
	done     <-chan struct{}
}

// Remote returns a handle to the loop started by Run.
func (i *Instrument) Remote() *Remote {
	return &Remote{requests: i.requests, done: i.done}
}

// Do performs an action inside the loop and returns its error.
func (r *Remote) Do(ctx context.Context, a Action) error {
	res, err := r.call(ctx, request{action: &a})
	if err != nil {
		return err
	}
	return res.err
}

// ExportCSV returns the event log in export format.
func (r *Remote) ExportCSV(ctx context.Context) ([]byte, error) {
	res, err := r.call(ctx, request{})
	if err != nil {
		return nil, err
	}
	return res.csv, nil
}

func (r *Remote) call(ctx context.Context, req request) (result, error) {
	req.reply = make(chan result, 1)
	select {
	case r.requests <- req:
	case <-r.done:
		return result{}, ErrStopped
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
	select {
	case res := <-req.reply:
		return res, nil
	case <-r.done:
		return result{}, ErrStopped
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}
