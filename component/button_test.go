package component

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
	"github.com/BertoldVdb/go-gpiodzero/gpio/gpiosim"
)

func waitEvent(ch <-chan bool) (bool, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(500 * time.Millisecond):
		return false, false
	}
}

func TestButtonIsPressed(t *testing.T) {
	chip := gpiosim.New("sim", 8)

	tests := []struct {
		pull    gpio.Bias
		level   bool
		pressed bool
	}{
		{gpio.BiasPullUp, true, false},
		{gpio.BiasPullUp, false, true},
		{gpio.BiasPullDown, false, false},
		{gpio.BiasPullDown, true, true},
		{gpio.BiasNone, false, false},
		{gpio.BiasNone, true, true},
	}

	for i, test := range tests {
		chip.SetInput(0, test.level)

		b, err := NewButton(chip, 0, ButtonConfig{Pull: test.pull})
		if err != nil {
			t.Fatal("NewButton failed:", err)
		}

		pressed, err := b.IsPressed()
		if err != nil {
			t.Error("IsPressed failed:", err)
		}
		if pressed != test.pressed {
			t.Error("Test", i, "expected pressed =", test.pressed)
		}

		b.Close()
	}
}

func TestButtonCallbacks(t *testing.T) {
	chip := gpiosim.New("sim", 8)
	chip.SetInput(1, false)

	events := make(chan bool, 16)

	b, err := NewButton(chip, 1, ButtonConfig{
		Debounce:     20 * time.Millisecond,
		PollInterval: 2 * time.Millisecond,
		WhenPressed:  func() { events <- true },
		WhenReleased: func() { events <- false },
	})
	if err != nil {
		t.Fatal("NewButton failed:", err)
	}
	defer b.Close()

	chip.SetInput(1, true)

	if v, ok := waitEvent(events); !ok || !v {
		t.Error("Press event was not reported")
	}

	chip.SetInput(1, false)

	if v, ok := waitEvent(events); !ok || v {
		t.Error("Release event was not reported")
	}
}

func TestButtonDebounce(t *testing.T) {
	chip := gpiosim.New("sim", 8)
	chip.SetInput(2, false)

	events := make(chan bool, 16)

	b, err := NewButton(chip, 2, ButtonConfig{
		Debounce:     50 * time.Millisecond,
		PollInterval: 2 * time.Millisecond,
		WhenPressed:  func() { events <- true },
		WhenReleased: func() { events <- false },
	})
	if err != nil {
		t.Fatal("NewButton failed:", err)
	}
	defer b.Close()

	/* A glitch shorter than the debounce interval must be ignored */
	chip.SetInput(2, true)
	time.Sleep(10 * time.Millisecond)
	chip.SetInput(2, false)

	select {
	case <-events:
		t.Error("Glitch was reported despite debouncing")
	case <-time.After(150 * time.Millisecond):
	}

	/* A stable change must still come through */
	chip.SetInput(2, true)

	if v, ok := waitEvent(events); !ok || !v {
		t.Error("Stable press was not reported")
	}
}

func TestButtonWaitForPress(t *testing.T) {
	chip := gpiosim.New("sim", 8)
	chip.SetInput(3, false)

	b, err := NewButton(chip, 3, ButtonConfig{
		Debounce:     -1,
		PollInterval: 2 * time.Millisecond,
	})
	if err != nil {
		t.Fatal("NewButton failed:", err)
	}
	defer b.Close()

	go func() {
		time.Sleep(30 * time.Millisecond)
		chip.SetInput(3, true)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := b.WaitForPress(ctx); err != nil {
		t.Error("WaitForPress failed:", err)
	}

	/* Already pressed returns immediately */
	if err := b.WaitForPress(ctx); err != nil {
		t.Error("WaitForPress on a pressed button failed:", err)
	}

	go func() {
		time.Sleep(30 * time.Millisecond)
		chip.SetInput(3, false)
	}()

	if err := b.WaitForRelease(ctx); err != nil {
		t.Error("WaitForRelease failed:", err)
	}

	/* The context must be able to abort the wait */
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer shortCancel()

	if err := b.WaitForPress(shortCtx); err != context.DeadlineExceeded {
		t.Error("Cancelled wait did not return the context error:", err)
	}
}

func TestButtonClose(t *testing.T) {
	chip := gpiosim.New("sim", 8)
	chip.SetInput(4, false)

	b, err := NewButton(chip, 4, ButtonConfig{PollInterval: 2 * time.Millisecond})
	if err != nil {
		t.Fatal("NewButton failed:", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- b.WaitForPress(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)

	if err := b.Close(); err != nil {
		t.Error("Close failed:", err)
	}

	select {
	case err := <-waitErr:
		if !errors.Is(err, gpio.ErrorClosed) {
			t.Error("Pending wait did not return ErrorClosed:", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Error("Close did not unblock the pending wait")
	}

	if err := b.Close(); err != nil {
		t.Error("Second Close was not a no-op:", err)
	}

	/* The line must be free again */
	b2, err := NewButton(chip, 4, ButtonConfig{})
	if err != nil {
		t.Error("Request after Close failed:", err)
	} else {
		b2.Close()
	}
}

func TestButtonCallbackClose(t *testing.T) {
	chip := gpiosim.New("sim", 8)
	chip.SetInput(5, false)

	closed := make(chan error, 1)

	var b *Button
	b, err := NewButton(chip, 5, ButtonConfig{
		Debounce:     -1,
		PollInterval: 2 * time.Millisecond,
		WhenPressed: func() {
			/* Close joins the watcher, so it runs in its own goroutine */
			go func() {
				closed <- b.Close()
			}()
		},
	})
	if err != nil {
		t.Fatal("NewButton failed:", err)
	}

	chip.SetInput(5, true)

	select {
	case err := <-closed:
		if err != nil {
			t.Error("Close triggered by the callback failed:", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Close triggered by the callback did not complete")
	}
}
