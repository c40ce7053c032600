// Package component provides semantic device wrappers (LEDs, buttons,
// buzzers, sensors) over gpio lines. Every component reserves its
// lines on construction and releases them on Close; construction is
// all or nothing, so a failed constructor leaves no lines reserved.
package component

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Activatable is any component that can be switched on and off.
type Activatable interface {
	On() error
	Off() error
}

// Readable is any component exposing a boolean state.
type Readable interface {
	IsActive() (bool, error)
}

// toggler manages the single background goroutine a component may run
// for blinking or beeping. Starting a new cycle replaces the previous
// one, and stop joins the goroutine so no toggle can fire afterwards.
// The mutex is held across the join; the cycle function must never
// call back into the toggler.
type toggler struct {
	mutex    sync.Mutex
	done     chan struct{}
	finished chan struct{}
}

// start cancels any running cycle and runs f in a new goroutine. f
// must return promptly once stop is closed.
func (t *toggler) start(f func(stop <-chan struct{})) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.stopLocked()

	done := make(chan struct{})
	finished := make(chan struct{})
	t.done = done
	t.finished = finished

	go func() {
		defer close(finished)
		f(done)
	}()
}

// stop cancels the running cycle, if any, and waits for it to finish.
// It can be called multiple times.
func (t *toggler) stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.stopLocked()
}

func (t *toggler) stopLocked() {
	if t.done == nil {
		return
	}

	close(t.done)
	<-t.finished

	t.done = nil
	t.finished = nil
}

// sleepOrStop waits for the duration unless stop is closed first.
func sleepOrStop(d time.Duration, stop <-chan struct{}) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-stop:
		return false
	case <-t.C:
		return true
	}
}

type debugLogger struct {
	log *logrus.Entry
}

func (d debugLogger) debug(msg string, fields logrus.Fields) {
	if d.log != nil {
		d.log.WithFields(fields).Debug(msg)
	}
}
