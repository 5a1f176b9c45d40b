// Package encoder exposes quadrature-decoder instances on the bus: JSON
// config in, retained info/value/status documents out, control verbs for
// start/stop arbitration, draining and configuration.
package encoder

import (
	"context"
	"time"

	"motioncode-go/bus"
	"motioncode-go/drivers/qdec"
	"motioncode-go/errcode"
	"motioncode-go/systick"
	"motioncode-go/types"
)

// PinFactory supplies decoder pins by the configured number scheme.
type PinFactory interface {
	ByNumber(n int) (qdec.Pin, bool)
}

// Run services the bus until ctx is cancelled. hw is the shared peripheral,
// tick the system ticker used for automatic polling (its Run loop is the
// caller's).
func Run(ctx context.Context, conn *bus.Connection, hw *qdec.Peripheral, pins PinFactory, tick *systick.Ticker) {
	s := &service{
		conn:    conn,
		hw:      hw,
		pins:    pins,
		tick:    tick,
		entries: map[string]*entry{},
	}
	s.loop(ctx)
}

type entry struct {
	id   string
	dev  *qdec.Device
	info types.EncoderInfo

	telemetry time.Duration
	nextDue   time.Time
	useTick   bool
}

type service struct {
	conn *bus.Connection
	hw   *qdec.Peripheral
	pins PinFactory
	tick *systick.Ticker

	entries map[string]*entry
	timer   *time.Timer
}

func (s *service) loop(ctx context.Context) {
	cfgSub := s.conn.Subscribe(bus.T("config", "encoder"))
	ctrlSub := s.conn.Subscribe(bus.T("encoder", bus.Wildcard, "control", bus.Wildcard))
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishState("idle", "awaiting_config")

	s.timer = time.NewTimer(time.Hour)
	if !s.timer.Stop() {
		drainTimer(s.timer)
	}

	for {
		s.armTimer()

		select {
		case <-ctx.Done():
			s.teardown()
			s.publishState("stopped", "context_cancelled")
			return

		case msg := <-cfgSub.Channel():
			var cfg Config
			if err := decodeJSON(msg.Payload, &cfg); err != nil {
				s.publishState("idle", "bad_config")
				continue
			}
			s.applyConfig(cfg)
			s.publishState("ready", "configured")

		case msg := <-ctrlSub.Channel():
			s.handleControl(msg)

		case <-s.timer.C:
			s.telemetryDue(time.Now())
		}
	}
}

func (s *service) armTimer() {
	var next time.Time
	for _, e := range s.entries {
		if e.telemetry <= 0 || !e.dev.Running() {
			continue
		}
		if next.IsZero() || e.nextDue.Before(next) {
			next = e.nextDue
		}
	}
	if !s.timer.Stop() {
		drainTimer(s.timer)
	}
	if next.IsZero() {
		s.timer.Reset(time.Hour)
		return
	}
	d := time.Until(next)
	if d < 0 {
		d = 0
	}
	s.timer.Reset(d)
}

func (s *service) applyConfig(cfg Config) {
	s.teardown()

	for _, def := range cfg.Encoders {
		e, err := s.build(def)
		if err != nil {
			s.publishStatus(def.ID, types.LinkDown, string(errcode.Of(err)))
			continue
		}
		s.entries[def.ID] = e
		s.publishInfo(e)

		if def.Params.AutoStart {
			s.startEntry(e)
		} else {
			s.publishStatus(e.id, types.LinkDown, "")
		}
	}
}

func (s *service) build(def Def) (*entry, error) {
	p := def.Params
	pinA, ok := s.pins.ByNumber(p.PinA)
	if !ok {
		return nil, errcode.UnknownPin
	}
	pinB, ok := s.pins.ByNumber(p.PinB)
	if !ok {
		return nil, errcode.UnknownPin
	}
	var led qdec.Pin
	if p.LED != nil {
		led, ok = s.pins.ByNumber(*p.LED)
		if !ok {
			return nil, errcode.UnknownPin
		}
	}

	dev := qdec.New(s.hw, qdec.Pins{A: pinA, B: pinB, LED: led}, qdec.Config{
		SamplePeriodUs: p.SamplePeriodUs,
		LEDDelayUs:     p.LEDDelayUs,
		LEDActiveLow:   p.LEDActiveLow,
		Debounce:       p.Debounce,
	})

	e := &entry{
		id:        def.ID,
		dev:       dev,
		telemetry: time.Duration(p.TelemetryMs) * time.Millisecond,
		useTick:   p.UseSystemTick,
		info: types.EncoderInfo{
			PinA:           p.PinA,
			PinB:           p.PinB,
			LED:            p.LED,
			SamplePeriodUs: dev.SamplePeriod(),
		},
	}
	if e.useTick {
		dev.EnableSystemTick(s.tick)
	}
	return e, nil
}

func (s *service) startEntry(e *entry) error {
	err := e.dev.Start()
	if err != nil {
		s.publishStatus(e.id, types.LinkDown, string(errcode.Of(err)))
		return err
	}
	e.nextDue = time.Now().Add(e.telemetry)
	s.publishStatus(e.id, types.LinkUp, "")
	s.publishValue(e)
	return nil
}

func (s *service) handleControl(msg *bus.Message) {
	// encoder/<id>/control/<verb>
	if len(msg.Topic) != 4 {
		return
	}
	id, verb := msg.Topic[1], msg.Topic[3]

	e, ok := s.entries[id]
	if !ok {
		s.reply(msg, types.ErrorReply{Error: string(errcode.UnknownEncoder)})
		return
	}

	switch verb {
	case "start":
		if err := s.startEntry(e); err != nil {
			s.reply(msg, types.ErrorReply{Error: string(errcode.Of(err))})
			return
		}
		s.reply(msg, types.OKReply{OK: true})

	case "stop":
		e.dev.Stop()
		s.publishStatus(e.id, types.LinkDown, "")
		s.reply(msg, types.OKReply{OK: true})

	case "read_now":
		if !e.useTick {
			e.dev.Poll()
		}
		s.publishValue(e)
		s.reply(msg, types.OKReply{OK: true})

	case "reset_position":
		var req types.ResetPositionReq
		if err := decodeJSON(msg.Payload, &req); err != nil {
			s.reply(msg, types.ErrorReply{Error: string(errcode.InvalidPayload)})
			return
		}
		e.dev.ResetPosition(req.Position)
		s.publishValue(e)
		s.reply(msg, types.OKReply{OK: true})

	case "reset_errors":
		e.dev.ResetErrors()
		s.publishValue(e)
		s.reply(msg, types.OKReply{OK: true})

	case "set_rate":
		var req types.SetRateReq
		if err := decodeJSON(msg.Payload, &req); err != nil {
			s.reply(msg, types.ErrorReply{Error: string(errcode.InvalidPayload)})
			return
		}
		if err := e.dev.SetSamplePeriod(req.SamplePeriodUs); err != nil {
			s.reply(msg, types.ErrorReply{Error: string(errcode.Of(err))})
			return
		}
		e.info.SamplePeriodUs = req.SamplePeriodUs
		s.publishInfo(e)
		s.reply(msg, types.OKReply{OK: true})

	case "enable_tick":
		e.useTick = true
		e.dev.EnableSystemTick(s.tick)
		s.reply(msg, types.OKReply{OK: true})

	case "disable_tick":
		e.useTick = false
		e.dev.DisableSystemTick()
		s.reply(msg, types.OKReply{OK: true})

	default:
		s.reply(msg, types.ErrorReply{Error: string(errcode.Unsupported)})
	}
}

func (s *service) telemetryDue(now time.Time) {
	for _, e := range s.entries {
		if e.telemetry <= 0 || !e.dev.Running() || now.Before(e.nextDue) {
			continue
		}
		if !e.useTick {
			e.dev.Poll()
		}
		s.publishValue(e)
		e.nextDue = now.Add(e.telemetry)
	}
}

func (s *service) teardown() {
	for id, e := range s.entries {
		_ = e.dev.Close()
		s.publishStatus(id, types.LinkDown, "")
	}
	s.entries = map[string]*entry{}
}

// ---- publications ----

func (s *service) publishState(level, status string) {
	s.conn.Publish(&bus.Message{
		Topic:    bus.T("encoder", "state"),
		Payload:  types.ServiceState{Level: level, Status: status, TS: nowMs()},
		Retained: true,
	})
}

func (s *service) publishInfo(e *entry) {
	s.conn.Publish(&bus.Message{
		Topic: bus.T("encoder", e.id, "info"),
		Payload: types.Info{
			SchemaVersion: 1,
			Driver:        "qdec",
			Detail:        e.info,
		},
		Retained: true,
	})
}

func (s *service) publishStatus(id string, link types.Link, errStr string) {
	s.conn.Publish(&bus.Message{
		Topic:    bus.T("encoder", id, "status"),
		Payload:  types.EncoderStatus{Link: link, TS: nowMs(), Error: errStr},
		Retained: true,
	})
}

func (s *service) publishValue(e *entry) {
	s.conn.Publish(&bus.Message{
		Topic: bus.T("encoder", e.id, "value"),
		Payload: types.EncoderValue{
			Position: e.dev.Position(),
			Errors:   e.dev.Errors(),
			TS:       nowMs(),
		},
		Retained: true,
	})
}

func (s *service) reply(msg *bus.Message, payload any) {
	if msg.ReplyTo == nil {
		return
	}
	s.conn.Publish(&bus.Message{Topic: msg.ReplyTo, Payload: payload})
}

func nowMs() int64 { return time.Now().UnixMilli() }

func drainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
