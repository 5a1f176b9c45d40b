package encoder

import (
	"context"
	"strconv"
	"testing"
	"time"

	"motioncode-go/bus"
	"motioncode-go/drivers/qdec"
	"motioncode-go/systick"
	"motioncode-go/types"
)

type fakePins struct{}

func (fakePins) ByNumber(n int) (qdec.Pin, bool) {
	if n < 0 || n > 31 {
		return nil, false
	}
	return &qdec.SimPin{N: uint32(n)}, true
}

type harness struct {
	t      *testing.T
	client *bus.Connection
	blk    *qdec.SimBlock
	nreply int
}

func newHarness(t *testing.T) (*harness, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	b := bus.New(16)
	blk := qdec.NewSimBlock()
	hw := qdec.NewPeripheral(blk)
	tick := systick.New(2 * time.Millisecond)
	go tick.Run(ctx)
	go Run(ctx, b.NewConnection("encoder"), hw, fakePins{}, tick)

	h := &harness{t: t, client: b.NewConnection("test"), blk: blk}
	h.awaitState("idle")
	return h, cancel
}

func (h *harness) awaitState(level string) {
	h.t.Helper()
	sub := h.client.Subscribe(bus.T("encoder", "state"))
	defer h.client.Unsubscribe(sub)
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.ServiceState); ok && st.Level == level {
				return
			}
		case <-deadline:
			h.t.Fatalf("timed out waiting for state %q", level)
		}
	}
}

func (h *harness) configure(cfg Config) {
	h.t.Helper()
	h.client.Publish(&bus.Message{Topic: bus.T("config", "encoder"), Payload: cfg})
	h.awaitState("ready")
}

// control sends a verb and returns the reply payload.
func (h *harness) control(id, verb string, payload any) any {
	h.t.Helper()
	h.nreply++
	replyTo := bus.T("test", "reply", strconv.Itoa(h.nreply))
	sub := h.client.Subscribe(replyTo)
	defer h.client.Unsubscribe(sub)

	h.client.Publish(&bus.Message{
		Topic:   bus.T("encoder", id, "control", verb),
		Payload: payload,
		ReplyTo: replyTo,
	})
	select {
	case m := <-sub.Channel():
		return m.Payload
	case <-time.After(time.Second):
		h.t.Fatalf("no reply for %s/%s", id, verb)
		return nil
	}
}

func (h *harness) mustOK(id, verb string, payload any) {
	h.t.Helper()
	if r, ok := h.control(id, verb, payload).(types.OKReply); !ok || !r.OK {
		h.t.Fatalf("%s/%s: expected OK reply", id, verb)
	}
}

func (h *harness) mustErr(id, verb string, payload any, wantCode string) {
	h.t.Helper()
	r, ok := h.control(id, verb, payload).(types.ErrorReply)
	if !ok {
		h.t.Fatalf("%s/%s: expected error reply", id, verb)
	}
	if r.Error != wantCode {
		h.t.Fatalf("%s/%s: error = %q, want %q", id, verb, r.Error, wantCode)
	}
}

// awaitValue waits for a value document satisfying pred.
func (h *harness) awaitValue(id string, pred func(types.EncoderValue) bool) types.EncoderValue {
	h.t.Helper()
	sub := h.client.Subscribe(bus.T("encoder", id, "value"))
	defer h.client.Unsubscribe(sub)
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if v, ok := m.Payload.(types.EncoderValue); ok && pred(v) {
				return v
			}
		case <-deadline:
			h.t.Fatalf("timed out waiting for %s value", id)
		}
	}
}

func (h *harness) awaitStatus(id string, link types.Link) {
	h.t.Helper()
	sub := h.client.Subscribe(bus.T("encoder", id, "status"))
	defer h.client.Unsubscribe(sub)
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.EncoderStatus); ok && st.Link == link {
				return
			}
		case <-deadline:
			h.t.Fatalf("timed out waiting for %s status %s", id, link)
		}
	}
}

func twoEncoderConfig() Config {
	return Config{Encoders: []Def{
		{ID: "m1", Params: Params{PinA: 1, PinB: 2, AutoStart: true}},
		{ID: "m2", Params: Params{PinA: 3, PinB: 4}},
	}}
}

func TestConfigureAndReadNow(t *testing.T) {
	h, cancel := newHarness(t)
	defer cancel()
	h.configure(twoEncoderConfig())
	h.awaitStatus("m1", types.LinkUp)

	h.blk.Advance(5)
	h.mustOK("m1", "read_now", nil)
	v := h.awaitValue("m1", func(v types.EncoderValue) bool { return v.Position == 5 })
	if v.Errors != 0 {
		t.Fatalf("errors = %d", v.Errors)
	}
}

func TestSecondInstanceBusyUntilStop(t *testing.T) {
	h, cancel := newHarness(t)
	defer cancel()
	h.configure(twoEncoderConfig())
	h.awaitStatus("m1", types.LinkUp)

	h.mustErr("m2", "start", nil, "busy")

	h.mustOK("m1", "stop", nil)
	h.awaitStatus("m1", types.LinkDown)
	h.mustOK("m2", "start", nil)
	h.awaitStatus("m2", types.LinkUp)
}

func TestSetRateValidation(t *testing.T) {
	h, cancel := newHarness(t)
	defer cancel()
	h.configure(twoEncoderConfig())

	h.mustErr("m2", "set_rate", types.SetRateReq{SamplePeriodUs: 100}, "invalid_param")
	h.mustOK("m2", "set_rate", types.SetRateReq{SamplePeriodUs: 512})
	h.mustErr("m2", "set_rate", `{"sample_period_us": "nope"}`, "invalid_payload")
}

func TestResetPositionAndErrors(t *testing.T) {
	h, cancel := newHarness(t)
	defer cancel()
	h.configure(twoEncoderConfig())
	h.awaitStatus("m1", types.LinkUp)

	h.blk.Advance(10)
	h.blk.Glitch(2)
	h.mustOK("m1", "read_now", nil)
	h.awaitValue("m1", func(v types.EncoderValue) bool { return v.Position == 10 && v.Errors == 2 })

	h.mustOK("m1", "reset_position", types.ResetPositionReq{Position: -3})
	h.awaitValue("m1", func(v types.EncoderValue) bool { return v.Position == -3 && v.Errors == 2 })

	h.mustOK("m1", "reset_errors", nil)
	h.awaitValue("m1", func(v types.EncoderValue) bool { return v.Errors == 0 })
}

func TestUnknownEncoderAndVerb(t *testing.T) {
	h, cancel := newHarness(t)
	defer cancel()
	h.configure(twoEncoderConfig())

	h.mustErr("nope", "start", nil, "unknown_encoder")
	h.mustErr("m2", "dance", nil, "unsupported")
}

func TestSystemTickPolling(t *testing.T) {
	h, cancel := newHarness(t)
	defer cancel()
	h.configure(Config{Encoders: []Def{{
		ID: "m1",
		Params: Params{
			PinA: 1, PinB: 2,
			AutoStart:     true,
			UseSystemTick: true,
			TelemetryMs:   5,
		},
	}}})
	h.awaitStatus("m1", types.LinkUp)

	h.blk.Advance(8)
	// The ticker drains the hardware; telemetry publishes what Poll saw.
	h.awaitValue("m1", func(v types.EncoderValue) bool { return v.Position == 8 })
}

func TestTeardownOnCancel(t *testing.T) {
	h, cancel := newHarness(t)
	h.configure(twoEncoderConfig())
	h.awaitStatus("m1", types.LinkUp)

	cancel()
	h.awaitState("stopped")
	// The peripheral must be released on teardown.
	if h.blk.Enabled() {
		t.Fatal("hardware still enabled after service stop")
	}
}
