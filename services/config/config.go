// Package config publishes embedded per-device configuration onto the bus:
// each top-level JSON section lands retained on config/<section>, where the
// owning service picks it up whenever it subscribes.
package config

import (
	"context"
	"encoding/json"
	"errors"

	"motioncode-go/bus"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key carrying the device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

type Service struct {
	Name string
}

func New() *Service {
	return &Service{Name: serviceName}
}

// publishConfig resolves the device's embedded config and publishes each
// section as a retained message.
func (s *Service) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}

	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return err
	}

	for k, v := range sections {
		conn.Publish(&bus.Message{
			Topic:    bus.T(configPrefix, k),
			Payload:  []byte(v),
			Retained: true,
		})
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		_ = s.publishConfig(ctx, conn)
	}()
}
