package component

import (
	"github.com/sirupsen/logrus"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
)

// Wiring describes how a sensor circuit signals activity.
type Wiring int

const (
	// NormallyOpen circuits read high when triggered.
	NormallyOpen Wiring = 0

	// NormallyClosed circuits read low when triggered (the circuit is
	// broken on activity).
	NormallyClosed Wiring = 1
)

// MotionSensorConfig configures a MotionSensor. The zero value gives a
// normally open sensor on a floating input.
type MotionSensorConfig struct {
	Wiring Wiring
	Pull   gpio.Bias

	Consumer string
	Logger   *logrus.Entry
}

// MotionSensor reads a digital presence sensor, such as a PIR module,
// on one input line.
type MotionSensor struct {
	debugLogger

	line   gpio.Line
	wiring Wiring
}

// NewMotionSensor reserves the line and creates a MotionSensor.
func NewMotionSensor(chip gpio.Chip, offset int, cfg MotionSensorConfig) (*MotionSensor, error) {
	line, err := chip.RequestLine(offset, gpio.LineConfig{
		Direction: gpio.Input,
		Bias:      cfg.Pull,
		Consumer:  cfg.Consumer,
	})
	if err != nil {
		return nil, err
	}

	return &MotionSensor{
		debugLogger: debugLogger{cfg.Logger},
		line:        line,
		wiring:      cfg.Wiring,
	}, nil
}

// MotionDetected returns whether the sensor currently reports
// activity, interpreting the level according to the wiring mode.
func (m *MotionSensor) MotionDetected() (bool, error) {
	v, err := m.line.Read()
	if err != nil {
		return false, err
	}

	if m.wiring == NormallyClosed {
		return !v, nil
	}
	return v, nil
}

// IsActive implements Readable.
func (m *MotionSensor) IsActive() (bool, error) {
	return m.MotionDetected()
}

// Close releases the line.
func (m *MotionSensor) Close() error {
	return m.line.Release()
}
