package gpiosim

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BertoldVdb/go-gpiodzero/gpio"
)

func TestRequestExclusive(t *testing.T) {
	chip := New("sim", 8)

	l1, err := chip.RequestLine(3, gpio.LineConfig{Direction: gpio.Output})
	if err != nil {
		t.Fatal("First request failed:", err)
	}

	if _, err := chip.RequestLine(3, gpio.LineConfig{Direction: gpio.Output}); !errors.Is(err, gpio.ErrorBusy) {
		t.Error("Second request did not return ErrorBusy:", err)
	}

	if err := l1.Release(); err != nil {
		t.Error("Release failed:", err)
	}
	if err := l1.Release(); err != nil {
		t.Error("Second release was not a no-op:", err)
	}

	if _, err := chip.RequestLine(3, gpio.LineConfig{Direction: gpio.Output}); err != nil {
		t.Error("Request after release failed:", err)
	}
}

func TestInvalidOffset(t *testing.T) {
	chip := New("sim", 8)

	for _, offset := range []int{-1, 8, 99} {
		if _, err := chip.RequestLine(offset, gpio.LineConfig{}); !errors.Is(err, gpio.ErrorInvalidOffset) {
			t.Error("Request of offset", offset, "did not return ErrorInvalidOffset:", err)
		}
	}
}

func TestOutputReadWrite(t *testing.T) {
	chip := New("sim", 8)

	l, err := chip.RequestLine(0, gpio.LineConfig{
		Direction:    gpio.Output,
		InitialValue: true,
	})
	if err != nil {
		t.Fatal("Request failed:", err)
	}

	if !chip.Level(0) {
		t.Error("Initial value was not applied")
	}

	if err := l.Write(false); err != nil {
		t.Error("Write failed:", err)
	}
	if chip.Level(0) {
		t.Error("Write did not change the level")
	}

	v, err := l.Read()
	if err != nil || v {
		t.Error("Read did not return the written value")
	}

	if got := chip.Writes(0); len(got) != 2 || !got[0] || got[1] {
		t.Error("Write history is wrong:", got)
	}

	l.Release()

	if _, err := l.Read(); !errors.Is(err, gpio.ErrorClosed) {
		t.Error("Read on a released line did not return ErrorClosed:", err)
	}
	if err := l.Write(true); !errors.Is(err, gpio.ErrorClosed) {
		t.Error("Write on a released line did not return ErrorClosed:", err)
	}
}

func TestActiveLow(t *testing.T) {
	chip := New("sim", 8)

	l, err := chip.RequestLine(1, gpio.LineConfig{
		Direction: gpio.Output,
		ActiveLow: true,
	})
	if err != nil {
		t.Fatal("Request failed:", err)
	}

	/* Logical off means electrical high on an active low line */
	if !chip.Level(1) {
		t.Error("Active low line does not idle high")
	}

	l.Write(true)
	if chip.Level(1) {
		t.Error("Logical high was not inverted")
	}

	v, err := l.Read()
	if err != nil || !v {
		t.Error("Read did not undo the inversion")
	}
}

func TestInputBiasAndDrive(t *testing.T) {
	chip := New("sim", 8)

	up, err := chip.RequestLine(2, gpio.LineConfig{Direction: gpio.Input, Bias: gpio.BiasPullUp})
	if err != nil {
		t.Fatal("Request failed:", err)
	}
	if v, _ := up.Read(); !v {
		t.Error("Undriven pull-up input does not read high")
	}

	down, err := chip.RequestLine(3, gpio.LineConfig{Direction: gpio.Input, Bias: gpio.BiasPullDown})
	if err != nil {
		t.Fatal("Request failed:", err)
	}
	if v, _ := down.Read(); v {
		t.Error("Undriven pull-down input does not read low")
	}

	chip.SetInput(2, false)
	if v, _ := up.Read(); v {
		t.Error("Driven input ignores the external level")
	}

	if err := up.Write(true); !errors.Is(err, gpio.ErrorNotSupported) {
		t.Error("Write on an input line did not return ErrorNotSupported:", err)
	}
}

func TestWaitForEdge(t *testing.T) {
	chip := New("sim", 8)

	l, err := chip.RequestLine(4, gpio.LineConfig{
		Direction: gpio.Input,
		Edge:      gpio.EdgeBoth,
	})
	if err != nil {
		t.Fatal("Request failed:", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		chip.SetInput(4, true)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	edge, err := l.WaitForEdge(ctx)
	if err != nil {
		t.Fatal("WaitForEdge failed:", err)
	}
	if edge != gpio.EdgeRising {
		t.Error("Expected a rising edge, got", edge)
	}

	/* Cancellation must unblock the waiter */
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer shortCancel()

	if _, err := l.WaitForEdge(shortCtx); err != context.DeadlineExceeded {
		t.Error("Cancelled wait did not return the context error:", err)
	}

	/* Lines without edge detection reject the call */
	plain, _ := chip.RequestLine(5, gpio.LineConfig{Direction: gpio.Input})
	if _, err := plain.WaitForEdge(context.Background()); !errors.Is(err, gpio.ErrorNotSupported) {
		t.Error("Edge wait without edge config did not return ErrorNotSupported:", err)
	}
}

func TestEdgeFilter(t *testing.T) {
	chip := New("sim", 8)

	l, err := chip.RequestLine(6, gpio.LineConfig{
		Direction: gpio.Input,
		Edge:      gpio.EdgeFalling,
	})
	if err != nil {
		t.Fatal("Request failed:", err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		chip.SetInput(6, true)
		time.Sleep(20 * time.Millisecond)
		chip.SetInput(6, false)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	edge, err := l.WaitForEdge(ctx)
	if err != nil {
		t.Fatal("WaitForEdge failed:", err)
	}
	if edge != gpio.EdgeFalling {
		t.Error("Rising edge was not filtered out, got", edge)
	}
}
