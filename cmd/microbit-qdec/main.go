//go:build microbit

// cmd/microbit-qdec/main.go
//
// Board main for the micro:bit: hardware quadrature decoding on two edge
// pins, position telemetry lines over the serial console, and a crude
// motion indicator on the LED matrix.
package main

import (
	"context"
	"image/color"
	"machine"
	"time"

	"tinygo.org/x/drivers/microbitmatrix"

	"motioncode-go/drivers/qdec"
	"motioncode-go/services/encoder"
	"motioncode-go/systick"
)

const (
	encoderID   = "m1"
	telemetryMs = 250
)

func main() {
	// Allow the serial console to come up before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	dev := qdec.New(qdec.Hardware(), qdec.Pins{
		A: qdec.NewPin(machine.P0),
		B: qdec.NewPin(machine.P1),
	}, qdec.Config{
		SamplePeriodUs: 1024,
		Debounce:       true,
	})

	tick := systick.New(systick.DefaultPeriod)
	go tick.Run(context.Background())

	dev.EnableSystemTick(tick)
	if err := dev.Start(); err != nil {
		println("qdec start:", err.Error())
		return
	}
	defer dev.Close()

	display := microbitmatrix.New()
	display.Configure(microbitmatrix.Config{})
	on := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	buf := make([]byte, 0, 48)
	report := time.Now()

	for {
		pos := dev.Position()

		// One lit column, walking with the encoder.
		display.ClearDisplay()
		col := int16(((pos % 5) + 5) % 5)
		for row := int16(0); row < 5; row++ {
			display.SetPixel(col, row, on)
		}
		display.Display()

		if time.Since(report) >= telemetryMs*time.Millisecond {
			buf = encoder.AppendReport(buf[:0], encoderID, pos, dev.Errors())
			machine.Serial.Write(buf)
			report = time.Now()
		}

		time.Sleep(2 * time.Millisecond)
	}
}
