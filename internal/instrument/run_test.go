package instrument

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/radmon/internal/eventlog"
	"github.com/sweeney/radmon/internal/gpio"
	"github.com/sweeney/radmon/internal/logic"
	"github.com/sweeney/radmon/internal/menu"
	"github.com/sweeney/radmon/internal/status"
)

type loop struct {
	inst    *Instrument
	out     *gpio.FakeOutputs
	tracker *status.Tracker
	frames  chan string
	display chan time.Time
	cancel  context.CancelFunc
	done    chan error
	once    sync.Once
}

func startLoop(t *testing.T, live logic.LiveConfig) *loop {
	t.Helper()
	l := &loop{
		out:     gpio.NewFakeOutputs(),
		tracker: status.NewTracker("test", time.Now(), status.Config{}),
		frames:  make(chan string),
		display: make(chan time.Time),
		done:    make(chan error, 1),
	}
	l.inst = New(live, time.Now(), Deps{Outputs: l.out, Status: l.tracker})

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go func() { l.done <- l.inst.Run(ctx, l.frames, l.display) }()
	t.Cleanup(l.stop)
	return l
}

func (l *loop) stop() {
	l.once.Do(func() {
		l.cancel()
		select {
		case <-l.done:
		case <-time.After(2 * time.Second):
		}
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestRunProcessesFramesAndActions(t *testing.T) {
	l := startLoop(t, logic.DefaultLiveConfig())
	remote := l.inst.Remote()
	ctx := context.Background()

	l.frames <- "Cnts:100!"
	require.NoError(t, remote.Do(ctx, Press(menu.ButtonPrg)))

	inst := l.tracker.Snapshot().Instrument
	assert.Equal(t, uint64(1), inst.Samples)
	assert.Equal(t, menu.ScreenPrgMenu, inst.Menu.Screen)

	csv, err := remote.ExportCSV(ctx)
	require.NoError(t, err)
	assert.Equal(t, eventlog.Header+"\n", string(csv))
}

func TestRunReturnsActionErrors(t *testing.T) {
	l := startLoop(t, logic.DefaultLiveConfig())

	err := l.inst.Remote().Do(context.Background(), Action{Kind: ActionCommitCell})
	assert.ErrorIs(t, err, menu.ErrNotEditingTable)
}

func TestRunDisplayTick(t *testing.T) {
	l := startLoop(t, logic.DefaultLiveConfig())

	l.frames <- "Cnts:30000!"
	time.Sleep(2100 * time.Millisecond)
	l.display <- time.Now()
	// A round trip through the loop orders the check after the tick.
	_, err := l.inst.Remote().ExportCSV(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "10.0 R/h", l.tracker.Snapshot().Instrument.Reading.Display)
}

func TestRunIntegratorTimer(t *testing.T) {
	l := startLoop(t, logic.DefaultLiveConfig())

	// 20000 cps selects the 2 s time constant.
	l.frames <- "Cnts:20000!"
	waitFor(t, "log entry", func() bool {
		return l.tracker.Snapshot().Instrument.LogEntries > 0
	})

	csv, err := l.inst.Remote().ExportCSV(context.Background())
	require.NoError(t, err)
	lines := strings.Split(string(csv), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasSuffix(lines[1], ",20000,7500.00,4.17,ALARM"), "row %q", lines[1])
}

func TestRunBlinksWhileAlarmActive(t *testing.T) {
	live := logic.DefaultLiveConfig()
	live.AlarmSetPoint = 5
	l := startLoop(t, live)

	l.frames <- "Cnts:100!"
	waitFor(t, "blink", func() bool {
		return l.tracker.Snapshot().Instrument.BlinkPhase
	})
	on, _ := l.out.Snapshot()
	assert.True(t, on)

	l.stop()
	on, _ = l.out.Snapshot()
	assert.False(t, on, "buzzer silenced on shutdown")
}

func TestRunSurvivesClosedTelemetry(t *testing.T) {
	l := startLoop(t, logic.DefaultLiveConfig())

	close(l.frames)
	require.NoError(t, l.inst.Remote().Do(context.Background(), Press(menu.ButtonPrg)))
	assert.Equal(t, menu.ScreenPrgMenu, l.tracker.Snapshot().Instrument.Menu.Screen)
}

func TestRemoteAfterStop(t *testing.T) {
	l := startLoop(t, logic.DefaultLiveConfig())
	l.stop()

	err := l.inst.Remote().Do(context.Background(), Press(menu.ButtonPrg))
	assert.ErrorIs(t, err, ErrStopped)

	_, err = l.inst.Remote().ExportCSV(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestRemoteHonoursContext(t *testing.T) {
	inst := New(logic.DefaultLiveConfig(), time.Now(), Deps{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// No loop is running, so only ctx can release the call.
	err := inst.Remote().Do(ctx, Press(menu.ButtonPrg))
	assert.ErrorIs(t, err, context.Canceled)
}
