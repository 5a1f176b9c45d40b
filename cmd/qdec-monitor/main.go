// cmd/qdec-monitor/main.go
//
// Host-side monitor: reads encoder telemetry lines from a serial port and
// prints position/error updates.
package main

import (
	"bytes"
	"io"
	"log"
	"os"
	"time"

	"github.com/tarm/serial"

	"motioncode-go/services/encoder"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: qdec-monitor <config.yaml>")
	}

	cfg, err := loadConfig(os.Args[1])
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Monitor.Port.Device,
		Baud:        cfg.Monitor.Port.Baud,
		ReadTimeout: time.Duration(cfg.Monitor.Port.ReadTimeoutMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("open %s: %v", cfg.Monitor.Port.Device, err)
	}
	defer port.Close()

	want := map[string]bool{}
	for _, id := range cfg.Monitor.Encoders {
		want[id] = true
	}

	log.Printf("listening on %s @ %d", cfg.Monitor.Port.Device, cfg.Monitor.Port.Baud)

	last := map[string]int64{}
	buf := make([]byte, 256)
	var pending []byte
	for {
		// A timed-out read on an idle link surfaces as an empty read or
		// io.EOF; keep polling rather than treating it as end of stream.
		n, err := port.Read(buf)
		if err != nil && err != io.EOF {
			log.Fatalf("serial read: %v", err)
		}
		if n == 0 {
			continue
		}
		pending = feed(pending, buf[:n], func(line string) {
			id, pos, errs, ok := encoder.ParseReport(line)
			if !ok {
				return // console noise between reports
			}
			if len(want) > 0 && !want[id] {
				return
			}
			delta := pos - last[id]
			last[id] = pos
			log.Printf("%s position=%d delta=%+d errors=%d", id, pos, delta, errs)
		})
	}
}

// feed appends chunk to pending and emits every complete line, returning
// the unterminated remainder.
func feed(pending, chunk []byte, emit func(string)) []byte {
	pending = append(pending, chunk...)
	for {
		i := bytes.IndexByte(pending, '\n')
		if i < 0 {
			return pending
		}
		emit(string(pending[:i]))
		pending = pending[i+1:]
	}
}
