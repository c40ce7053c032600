package component

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
)

// BuzzerConfig configures a Buzzer. The zero value is valid.
type BuzzerConfig struct {
	ActiveLow bool
	Consumer  string
	Logger    *logrus.Entry
}

// Buzzer drives an active buzzer on one output line.
type Buzzer struct {
	debugLogger

	line gpio.Line
	beep toggler
}

// NewBuzzer reserves the line and creates a Buzzer, initially silent.
func NewBuzzer(chip gpio.Chip, offset int, cfg BuzzerConfig) (*Buzzer, error) {
	line, err := chip.RequestLine(offset, gpio.LineConfig{
		Direction: gpio.Output,
		ActiveLow: cfg.ActiveLow,
		Consumer:  cfg.Consumer,
	})
	if err != nil {
		return nil, err
	}

	return &Buzzer{
		debugLogger: debugLogger{cfg.Logger},
		line:        line,
	}, nil
}

// On sounds the buzzer continuously, cancelling a running beep cycle.
func (b *Buzzer) On() error {
	b.beep.stop()
	return b.line.Write(true)
}

// Off silences the buzzer and cancels any running beep cycle. When Off
// returns the line is low and no further toggles can occur.
func (b *Buzzer) Off() error {
	b.beep.stop()
	return b.line.Write(false)
}

// IsActive implements Readable.
func (b *Buzzer) IsActive() (bool, error) {
	return b.line.Read()
}

// Beep sounds the buzzer for the given duration in the background. A
// running beep cycle is replaced. Off cancels the beep early.
func (b *Buzzer) Beep(d time.Duration) error {
	if d <= 0 {
		return gpio.ErrorOutOfRange
	}

	b.beep.start(func(stop <-chan struct{}) {
		b.line.Write(true)
		sleepOrStop(d, stop)
		b.line.Write(false)
	})

	return nil
}

// BeepN sounds count beeps with the given cadence in the background.
// A count of zero repeats until Off or Close is called.
func (b *Buzzer) BeepN(onTime, offTime time.Duration, count int) error {
	if onTime <= 0 || offTime <= 0 || count < 0 {
		return gpio.ErrorOutOfRange
	}

	b.debug("Beep cycle started", logrus.Fields{
		"line":  b.line.Offset(),
		"count": count,
	})

	b.beep.start(func(stop <-chan struct{}) {
		for i := 0; count == 0 || i < count; i++ {
			b.line.Write(true)
			if !sleepOrStop(onTime, stop) {
				break
			}

			b.line.Write(false)
			if !sleepOrStop(offTime, stop) {
				return
			}
		}

		b.line.Write(false)
	})

	return nil
}

// Close silences the buzzer and releases its line.
func (b *Buzzer) Close() error {
	b.beep.stop()
	b.line.Write(false)

	return b.line.Release()
}
