// Package softpwm approximates PWM on a plain GPIO output line by
// toggling it from a background goroutine. Timing is best effort: the
// achievable frequency is limited by timer granularity and scheduling,
// so this is no replacement for a hardware PWM line, but it is good
// enough for LED dimming and similar uses.
package softpwm

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
)

// DefaultFrequency is used when Config.Frequency is zero. 100 Hz keeps
// individual on/off phases well above timer granularity while being
// flicker free on an LED.
const DefaultFrequency = 100.0

// MaxFrequency is the highest accepted frequency. Shorter periods than
// this cannot be timed with sleeps and would degrade into a busy loop
// hammering the line.
const MaxFrequency = 10000.0

// Config configures a Session.
type Config struct {
	// Frequency in Hz. Zero selects DefaultFrequency, negative values
	// are rejected.
	Frequency float64

	// DutyCycle is the initial duty cycle, 0.0 to 1.0.
	DutyCycle float64

	// Logger receives debug output. Nil disables logging.
	Logger *logrus.Entry
}

type params struct {
	frequency float64
	duty      float64

	/* Closed by the toggler once the line reflects these parameters */
	applied chan struct{}
}

func (p *params) ack() {
	if p.applied != nil {
		close(p.applied)
		p.applied = nil
	}
}

// Session is one running PWM emulation on one line. The session owns
// the background toggler, the caller keeps ownership of the line.
type Session struct {
	line gpio.Line
	log  *logrus.Entry

	update   chan params
	done     chan struct{}
	finished chan struct{}

	mutex   sync.Mutex
	cur     params
	stopped bool
}

// New starts PWM emulation on an output line. The duty cycle must be
// inside [0.0, 1.0] and the frequency positive and at most
// MaxFrequency, otherwise the call fails with gpio.ErrorOutOfRange.
func New(line gpio.Line, cfg Config) (*Session, error) {
	frequency := cfg.Frequency
	if frequency == 0 {
		frequency = DefaultFrequency
	}

	if frequency < 0 || frequency > MaxFrequency {
		return nil, gpio.ErrorOutOfRange
	}
	if cfg.DutyCycle < 0 || cfg.DutyCycle > 1 {
		return nil, gpio.ErrorOutOfRange
	}

	s := &Session{
		line: line,
		log:  cfg.Logger,

		update:   make(chan params, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),

		cur: params{
			frequency: frequency,
			duty:      cfg.DutyCycle,
		},
	}

	s.debug("PWM session started")

	go s.run(s.cur)

	return s, nil
}

func (s *Session) debug(msg string) {
	if s.log != nil {
		s.log.WithField("line", s.line.Offset()).Debug(msg)
	}
}

func (s *Session) run(p params) {
	defer close(s.finished)

	for {
		period := time.Duration(float64(time.Second) / p.frequency)
		onTime := time.Duration(float64(period) * p.duty)
		offTime := period - onTime

		// Fully on and fully off need no toggling, just park until
		// the parameters change.
		switch {
		case p.duty <= 0:
			s.line.Write(false)
			p.ack()
			if !s.park(&p) {
				return
			}

		case p.duty >= 1:
			s.line.Write(true)
			p.ack()
			if !s.park(&p) {
				return
			}

		default:
			s.line.Write(true)
			p.ack()
			if !s.phase(onTime, &p) {
				return
			}

			s.line.Write(false)
			if !s.phase(offTime, &p) {
				return
			}
		}
	}
}

// park blocks until the parameters change or the session stops. It
// returns false when the session must terminate, with the line driven
// low.
func (s *Session) park(p *params) bool {
	select {
	case np := <-s.update:
		*p = np
		return true
	case <-s.done:
		s.line.Write(false)
		return false
	}
}

// phase sleeps for one on or off phase. Updated parameters take effect
// at the next phase boundary so there is no gap in the output.
func (s *Session) phase(d time.Duration, p *params) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case np := <-s.update:
		*p = np
		return true
	case <-s.done:
		s.line.Write(false)
		return false
	case <-t.C:
		return true
	}
}

// push replaces any pending parameter update. Called with the mutex
// held, so there is only ever one concurrent sender.
func (s *Session) push(p params) {
	select {
	case old := <-s.update:
		old.ack()
	default:
	}

	s.update <- p
}

// SetDutyCycle changes the duty cycle without interrupting the output.
// Values outside [0.0, 1.0] fail with gpio.ErrorOutOfRange.
func (s *Session) SetDutyCycle(duty float64) error {
	if duty < 0 || duty > 1 {
		return gpio.ErrorOutOfRange
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.stopped {
		return gpio.ErrorClosed
	}

	s.cur.duty = duty
	s.push(s.cur)

	return nil
}

// SetDutyCycleSync changes the duty cycle like SetDutyCycle, but only
// returns once the toggler has driven the line according to the new
// value. With a duty cycle of zero the line is therefore guaranteed to
// be low, with no toggle pending, when the call returns.
func (s *Session) SetDutyCycleSync(duty float64) error {
	if duty < 0 || duty > 1 {
		return gpio.ErrorOutOfRange
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.stopped {
		return gpio.ErrorClosed
	}

	s.cur.duty = duty

	/* Holding the mutex here keeps Stop (and further pushes) out until
	   the toggler, which never takes the mutex, has acknowledged */
	p := s.cur
	p.applied = make(chan struct{})
	s.push(p)

	<-p.applied

	return nil
}

// SetFrequency changes the toggle frequency. It must be positive and
// at most MaxFrequency.
func (s *Session) SetFrequency(frequency float64) error {
	if frequency <= 0 || frequency > MaxFrequency {
		return gpio.ErrorOutOfRange
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.stopped {
		return gpio.ErrorClosed
	}

	s.cur.frequency = frequency
	s.push(s.cur)

	return nil
}

// DutyCycle returns the current duty cycle.
func (s *Session) DutyCycle() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.cur.duty
}

// Frequency returns the current frequency in Hz.
func (s *Session) Frequency() float64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.cur.frequency
}

// Stop halts the toggler and leaves the line low. It blocks until the
// background goroutine has terminated, so no further writes happen on
// the line after Stop returns. Stop can be called multiple times.
func (s *Session) Stop() error {
	s.mutex.Lock()
	if s.stopped {
		s.mutex.Unlock()
		return nil
	}
	s.stopped = true
	s.mutex.Unlock()

	close(s.done)
	<-s.finished

	s.debug("PWM session stopped")

	return nil
}

// Close is an alias for Stop. The line stays with the caller.
func (s *Session) Close() error {
	return s.Stop()
}
