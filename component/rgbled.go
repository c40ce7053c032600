package component

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
)

// RGBLEDConfig configures a RGBLED. The zero value is valid.
type RGBLEDConfig struct {
	// Frequency of the software PWM shared by the three channels.
	Frequency float64

	// ActiveLow marks a common anode LED where driving a channel low
	// turns it on.
	ActiveLow bool

	Consumer string
	Logger   *logrus.Entry
}

// RGBLED drives a three channel LED through three software PWM
// sessions. Channel intensities are floats from 0.0 to 1.0.
type RGBLED struct {
	debugLogger

	channels [3]*PWMLED
	blink    toggler

	mutex sync.Mutex
	color [3]float64
}

// NewRGBLED reserves the three lines and creates a RGBLED, initially
// off. Acquisition is all or nothing: if any line cannot be reserved,
// the ones already reserved are released again, and all offsets are
// validated against the chip before the first line is requested.
func NewRGBLED(chip gpio.Chip, red, green, blue int, cfg RGBLEDConfig) (*RGBLED, error) {
	offsets := [3]int{red, green, blue}

	for _, offset := range offsets {
		if offset < 0 || offset >= chip.Info().Lines {
			return nil, gpio.ErrorInvalidOffset
		}
	}

	l := &RGBLED{
		debugLogger: debugLogger{cfg.Logger},
	}

	for i, offset := range offsets {
		ch, err := NewPWMLED(chip, offset, PWMLEDConfig{
			Frequency: cfg.Frequency,
			ActiveLow: cfg.ActiveLow,
			Consumer:  cfg.Consumer,
			Logger:    cfg.Logger,
		})
		if err != nil {
			for j := 0; j < i; j++ {
				l.channels[j].Close()
			}
			return nil, err
		}

		l.channels[i] = ch
	}

	l.debug("RGBLED created", logrus.Fields{
		"red":   red,
		"green": green,
		"blue":  blue,
	})

	return l, nil
}

// SetColor sets the three channel intensities. Each value must be
// inside [0.0, 1.0]; otherwise the call fails with
// gpio.ErrorOutOfRange before any channel is changed.
func (l *RGBLED) SetColor(r, g, b float64) error {
	color := [3]float64{r, g, b}

	for _, v := range color {
		if v < 0 || v > 1 {
			return gpio.ErrorOutOfRange
		}
	}

	l.mutex.Lock()
	l.color = color
	l.mutex.Unlock()

	return l.apply(color)
}

func (l *RGBLED) apply(color [3]float64) error {
	for i, ch := range l.channels {
		if err := ch.SetBrightness(color[i]); err != nil {
			return err
		}
	}

	return nil
}

// Color returns the last color set with SetColor.
func (l *RGBLED) Color() (r, g, b float64) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	return l.color[0], l.color[1], l.color[2]
}

// On restores the last color, or white if no color was ever set.
func (l *RGBLED) On() error {
	l.blink.stop()

	l.mutex.Lock()
	color := l.color
	if color == [3]float64{} {
		color = [3]float64{1, 1, 1}
		l.color = color
	}
	l.mutex.Unlock()

	return l.apply(color)
}

// Off cancels a running blink cycle and turns all channels off. The
// last color is kept for On. All three lines are low when Off returns.
func (l *RGBLED) Off() error {
	l.blink.stop()

	var firstErr error
	for _, ch := range l.channels {
		if err := ch.Off(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// IsActive implements Readable: the LED is active when any channel is
// lit.
func (l *RGBLED) IsActive() (bool, error) {
	for _, ch := range l.channels {
		if ch.Brightness() > 0 {
			return true, nil
		}
	}

	return false, nil
}

// Blink alternates between the current color and off until Off or
// Close is called. Both durations must be positive.
func (l *RGBLED) Blink(onTime, offTime time.Duration) error {
	if onTime <= 0 || offTime <= 0 {
		return gpio.ErrorOutOfRange
	}

	l.mutex.Lock()
	color := l.color
	if color == [3]float64{} {
		color = [3]float64{1, 1, 1}
		l.color = color
	}
	l.mutex.Unlock()

	l.blink.start(func(stop <-chan struct{}) {
		for {
			l.apply(color)
			if !sleepOrStop(onTime, stop) {
				return
			}

			l.apply([3]float64{})
			if !sleepOrStop(offTime, stop) {
				return
			}
		}
	})

	return nil
}

// Close turns the LED off and releases all three lines.
func (l *RGBLED) Close() error {
	l.blink.stop()

	var firstErr error
	for _, ch := range l.channels {
		if err := ch.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
