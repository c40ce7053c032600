package component

import (
	"github.com/sirupsen/logrus"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
	"github.com/BertoldVdb/go-gpiodzero/softpwm"
)

// PWMLEDConfig configures a PWMLED. The zero value is valid.
type PWMLEDConfig struct {
	// Frequency of the software PWM in Hz. Zero selects
	// softpwm.DefaultFrequency.
	Frequency float64

	ActiveLow bool
	Consumer  string
	Logger    *logrus.Entry
}

// PWMLED is a LED with variable brightness, driven by software PWM.
type PWMLED struct {
	debugLogger

	line gpio.Line
	pwm  *softpwm.Session
}

// NewPWMLED reserves the line and starts a PWM session at zero
// brightness.
func NewPWMLED(chip gpio.Chip, offset int, cfg PWMLEDConfig) (*PWMLED, error) {
	line, err := chip.RequestLine(offset, gpio.LineConfig{
		Direction: gpio.Output,
		ActiveLow: cfg.ActiveLow,
		Consumer:  cfg.Consumer,
	})
	if err != nil {
		return nil, err
	}

	pwm, err := softpwm.New(line, softpwm.Config{
		Frequency: cfg.Frequency,
		Logger:    cfg.Logger,
	})
	if err != nil {
		line.Release()
		return nil, err
	}

	return &PWMLED{
		debugLogger: debugLogger{cfg.Logger},
		line:        line,
		pwm:         pwm,
	}, nil
}

// SetBrightness sets the brightness from 0.0 (off) to 1.0 (fully on).
// Values outside that range fail with gpio.ErrorOutOfRange.
func (l *PWMLED) SetBrightness(v float64) error {
	return l.pwm.SetDutyCycle(v)
}

// Brightness returns the current brightness.
func (l *PWMLED) Brightness() float64 {
	return l.pwm.DutyCycle()
}

// On sets full brightness.
func (l *PWMLED) On() error {
	return l.SetBrightness(1)
}

// Off sets zero brightness. It only returns once the toggler has
// actually driven the line low, so no write trails an Off call.
func (l *PWMLED) Off() error {
	return l.pwm.SetDutyCycleSync(0)
}

// IsActive implements Readable: the LED is active at any non-zero
// brightness.
func (l *PWMLED) IsActive() (bool, error) {
	return l.Brightness() > 0, nil
}

// Close stops the PWM session and releases the line. The line is left
// low.
func (l *PWMLED) Close() error {
	l.pwm.Stop()

	return l.line.Release()
}
