package component

import (
	"errors"
	"testing"
	"time"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
	"github.com/BertoldVdb/go-gpiodzero/gpio/gpiosim"
)

func TestLEDOnOff(t *testing.T) {
	chip := gpiosim.New("sim", 8)

	led, err := NewLED(chip, 0, LEDConfig{})
	if err != nil {
		t.Fatal("NewLED failed:", err)
	}
	defer led.Close()

	if err := led.On(); err != nil {
		t.Fatal("On failed:", err)
	}
	if !chip.Level(0) {
		t.Error("LED is not lit after On")
	}

	if v, err := led.IsLit(); err != nil || !v {
		t.Error("IsLit does not report the LED as lit")
	}

	if err := led.Off(); err != nil {
		t.Fatal("Off failed:", err)
	}
	if chip.Level(0) {
		t.Error("LED is still lit after Off")
	}

	/* Off on an already off LED is harmless and keeps the line low */
	if err := led.Off(); err != nil {
		t.Error("Second Off failed:", err)
	}
	if chip.Level(0) {
		t.Error("Line is not low after double Off")
	}
}

func TestLEDToggle(t *testing.T) {
	chip := gpiosim.New("sim", 8)

	led, err := NewLED(chip, 1, LEDConfig{})
	if err != nil {
		t.Fatal("NewLED failed:", err)
	}
	defer led.Close()

	for i := 0; i < 4; i++ {
		if err := led.Toggle(); err != nil {
			t.Fatal("Toggle failed:", err)
		}
		if chip.Level(1) != (i%2 == 0) {
			t.Error("Toggle", i, "did not invert the state")
		}
	}
}

func TestLEDActiveLow(t *testing.T) {
	chip := gpiosim.New("sim", 8)

	led, err := NewLED(chip, 2, LEDConfig{ActiveLow: true})
	if err != nil {
		t.Fatal("NewLED failed:", err)
	}
	defer led.Close()

	led.On()
	if chip.Level(2) {
		t.Error("Active low LED drives the pin high when on")
	}

	if v, _ := led.IsLit(); !v {
		t.Error("IsLit does not undo the active low inversion")
	}
}

func TestLEDBlinkThenOff(t *testing.T) {
	chip := gpiosim.New("sim", 8)

	led, err := NewLED(chip, 3, LEDConfig{})
	if err != nil {
		t.Fatal("NewLED failed:", err)
	}
	defer led.Close()

	if err := led.Blink(10*time.Millisecond, 10*time.Millisecond); err != nil {
		t.Fatal("Blink failed:", err)
	}

	time.Sleep(65 * time.Millisecond)

	if chip.WriteCount(3) < 4 {
		t.Error("Blink did not toggle the line")
	}

	if err := led.Off(); err != nil {
		t.Fatal("Off failed:", err)
	}
	if chip.Level(3) {
		t.Error("Line is not low after Off")
	}

	/* The toggler must be gone once Off has returned */
	count := chip.WriteCount(3)
	time.Sleep(50 * time.Millisecond)
	if chip.WriteCount(3) != count {
		t.Error("Blink toggler kept writing after Off")
	}
}

func TestLEDBlinkReplaced(t *testing.T) {
	chip := gpiosim.New("sim", 8)

	led, err := NewLED(chip, 4, LEDConfig{})
	if err != nil {
		t.Fatal("NewLED failed:", err)
	}
	defer led.Close()

	led.Blink(5*time.Millisecond, 5*time.Millisecond)
	led.Blink(10*time.Millisecond, 10*time.Millisecond)
	led.Blink(20*time.Millisecond, 20*time.Millisecond)

	led.Off()

	count := chip.WriteCount(4)
	time.Sleep(60 * time.Millisecond)
	if chip.WriteCount(4) != count {
		t.Error("A replaced blink cycle is still running")
	}
}

func TestLEDBlinkValidation(t *testing.T) {
	chip := gpiosim.New("sim", 8)

	led, err := NewLED(chip, 5, LEDConfig{})
	if err != nil {
		t.Fatal("NewLED failed:", err)
	}
	defer led.Close()

	if err := led.Blink(0, time.Second); !errors.Is(err, gpio.ErrorOutOfRange) {
		t.Error("Zero on time was not rejected:", err)
	}
	if err := led.Blink(time.Second, -time.Second); !errors.Is(err, gpio.ErrorOutOfRange) {
		t.Error("Negative off time was not rejected:", err)
	}
}

func TestLEDConstruction(t *testing.T) {
	chip := gpiosim.New("sim", 8)

	if _, err := NewLED(chip, 99, LEDConfig{}); !errors.Is(err, gpio.ErrorInvalidOffset) {
		t.Error("Out of range offset was not rejected:", err)
	}

	led, err := NewLED(chip, 6, LEDConfig{})
	if err != nil {
		t.Fatal("NewLED failed:", err)
	}

	if _, err := NewLED(chip, 6, LEDConfig{}); !errors.Is(err, gpio.ErrorBusy) {
		t.Error("Second LED on the same line did not return ErrorBusy:", err)
	}

	led.Close()

	/* Close must release the line */
	led2, err := NewLED(chip, 6, LEDConfig{})
	if err != nil {
		t.Error("Request after Close failed:", err)
	} else {
		led2.Close()
	}
}
