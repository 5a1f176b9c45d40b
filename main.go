// Host demo: runs the encoder service against a simulated register block,
// spins the simulated encoder back and forth, and prints the value
// documents as they are published.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"motioncode-go/bus"
	"motioncode-go/drivers/qdec"
	"motioncode-go/services/config"
	"motioncode-go/services/encoder"
	"motioncode-go/services/heartbeat"
	"motioncode-go/systick"
	"motioncode-go/types"
)

type simPins struct{}

func (simPins) ByNumber(n int) (qdec.Pin, bool) {
	if n < 0 || n > 31 {
		return nil, false
	}
	return &qdec.SimPin{N: uint32(n)}, true
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = context.WithValue(ctx, config.CtxDeviceKey, "sim")

	b := bus.New(16)
	blk := qdec.NewSimBlock()
	hw := qdec.NewPeripheral(blk)
	tick := systick.New(systick.DefaultPeriod)

	go tick.Run(ctx)
	go encoder.Run(ctx, b.NewConnection("encoder"), hw, simPins{}, tick)
	_ = heartbeat.New().Start(ctx, b.NewConnection("heartbeat"))
	config.New().Start(ctx, b.NewConnection("config"))

	client := b.NewConnection("demo")
	values := client.Subscribe(bus.T("encoder", "sim", "value"))
	defer client.Unsubscribe(values)

	// Simulated motion: forward, then back, with the odd glitch.
	go func() {
		dir := int32(1)
		for i := 0; ; i++ {
			select {
			case <-ctx.Done():
				return
			case <-time.After(50 * time.Millisecond):
			}
			blk.Advance(dir * 3)
			if i%40 == 39 {
				dir = -dir
				blk.Glitch(1)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-values.Channel():
			if v, ok := m.Payload.(types.EncoderValue); ok {
				fmt.Printf("position=%d errors=%d\n", v.Position, v.Errors)
			}
		}
	}
}
