// Package sht3x reads Sensirion SHT3x temperature and humidity
// sensors over I2C, using single shot measurements with clock
// stretching disabled.
package sht3x

import (
	"time"

	"github.com/sigurn/crc8"
	"github.com/sirupsen/logrus"

	"github.com/BertoldVdb/go-gpiodzero/i2c"
)

// AddressDefault is the SHT3x address with the ADDR pin pulled low.
// With ADDR high the sensor answers on 0x45.
const AddressDefault uint16 = 0x44

// Error is a constant error value.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrorBadCRC     = Error("Measurement failed CRC check")
	ErrorShortReply = Error("Measurement reply too short")
)

var crcTable *crc8.Table

func init() {
	crcParam := crc8.Params{
		Poly: 0x31,
		Init: 0xFF,
		Name: "CRC-8/SHT3x",
	}
	crcTable = crc8.MakeTable(crcParam)
}

// Single shot measurement, high repeatability, no clock stretching.
var cmdMeasure = []byte{0x24, 0x00}

// measureDelay is the maximum measurement duration at high
// repeatability per the datasheet, rounded up.
const measureDelay = 16 * time.Millisecond

// Measurement is one temperature and humidity reading.
type Measurement struct {
	// Temperature in degrees Celsius.
	Temperature float64

	// Humidity in percent relative humidity.
	Humidity float64
}

// Sensor reads one SHT3x device.
type Sensor struct {
	conn i2c.Conn
	log  *logrus.Entry
}

// New creates a Sensor on an address-bound connection, typically a
// *i2c.Device.
func New(conn i2c.Conn) *Sensor {
	return &Sensor{conn: conn}
}

// SetLogger enables debug logging of measurements.
func (s *Sensor) SetLogger(log *logrus.Entry) {
	s.log = log
}

// Measure triggers a single shot measurement and returns the result.
// The call blocks for the measurement duration (about 16 ms). Both
// received words are CRC checked.
func (s *Sensor) Measure() (Measurement, error) {
	var result Measurement

	if err := s.conn.Transfer(cmdMeasure, nil); err != nil {
		return result, err
	}

	time.Sleep(measureDelay)

	reply := make([]byte, 6)
	if err := s.conn.Transfer(nil, reply); err != nil {
		return result, err
	}

	rawTemp, err := checkWord(reply[0:3])
	if err != nil {
		return result, err
	}

	rawHum, err := checkWord(reply[3:6])
	if err != nil {
		return result, err
	}

	// Conversion formulas from the SHT3x datasheet
	result.Temperature = -45 + 175*float64(rawTemp)/65535
	result.Humidity = 100 * float64(rawHum) / 65535

	if s.log != nil {
		s.log.WithFields(logrus.Fields{
			"temperature": result.Temperature,
			"humidity":    result.Humidity,
		}).Debug("Measurement complete")
	}

	return result, nil
}

// checkWord validates a 16 bit word followed by its CRC byte.
func checkWord(buf []byte) (uint16, error) {
	if len(buf) < 3 {
		return 0, ErrorShortReply
	}

	if crc8.Checksum(buf[0:2], crcTable) != buf[2] {
		return 0, ErrorBadCRC
	}

	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}
