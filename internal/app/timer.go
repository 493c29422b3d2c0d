package app

import "time"

// TimerState is the per-question countdown state.
type TimerState string

const (
	TimerIdle      TimerState = "idle"
	TimerRunning   TimerState = "running"
	TimerExpired   TimerState = "expired"
	TimerCancelled TimerState = "cancelled"
)

const (
	tickInterval = time.Second
	// Delay before a deferred-mode submission moves on.
	answerAdvanceDelay = 100 * time.Millisecond
	// Delay before a deferred-mode time-out moves on.
	expiryAdvanceDelay = 600 * time.Millisecond
)

// handle is one scheduled callback. Callbacks carry the handle id and are
// ignored unless that id is still the pending one, so a callback that lost the
// race against Stop never takes effect.
type handle struct {
	id   uint64
	stop Stopper
}

// timerController owns at most one countdown and at most one auto-advance
// delay. It is not safe for concurrent use; the Session lock guards it.
type timerController struct {
	clock     Clock
	seq       uint64
	countdown *handle
	advance   *handle
	remaining int
	state     TimerState
}

func newTimerController(clock Clock) timerController {
	return timerController{clock: clock, state: TimerIdle}
}

func (t *timerController) next() uint64 {
	t.seq++
	return t.seq
}

// start (re)starts the countdown from seconds; onTick fires once per second.
func (t *timerController) start(seconds int, onTick func(id uint64)) {
	t.cancelCountdown()
	id := t.next()
	t.remaining = seconds
	t.state = TimerRunning
	t.countdown = &handle{id: id, stop: t.clock.AfterFunc(tickInterval, func() { onTick(id) })}
}

// rearm schedules the following tick of the current countdown.
func (t *timerController) rearm(id uint64, onTick func(id uint64)) {
	if !t.isCountdown(id) {
		return
	}
	t.countdown.stop = t.clock.AfterFunc(tickInterval, func() { onTick(id) })
}

func (t *timerController) isCountdown(id uint64) bool {
	return t.countdown != nil && t.countdown.id == id
}

func (t *timerController) expire() {
	t.countdown = nil
	t.remaining = 0
	t.state = TimerExpired
}

func (t *timerController) cancelCountdown() {
	if t.countdown != nil {
		t.countdown.stop.Stop()
		t.countdown = nil
		t.state = TimerCancelled
	}
}

func (t *timerController) running() bool {
	return t.countdown != nil
}

// scheduleAdvance replaces any pending auto-advance delay.
func (t *timerController) scheduleAdvance(d time.Duration, onFire func(id uint64)) {
	t.cancelAdvance()
	id := t.next()
	t.advance = &handle{id: id, stop: t.clock.AfterFunc(d, func() { onFire(id) })}
}

// claimAdvance reports whether id is the pending delay and clears it.
func (t *timerController) claimAdvance(id uint64) bool {
	if t.advance == nil || t.advance.id != id {
		return false
	}
	t.advance = nil
	return true
}

func (t *timerController) cancelAdvance() {
	if t.advance != nil {
		t.advance.stop.Stop()
		t.advance = nil
	}
}

func (t *timerController) stopAll() {
	t.cancelCountdown()
	t.cancelAdvance()
}

func (t *timerController) reset() {
	t.stopAll()
	t.remaining = 0
	t.state = TimerIdle
}
