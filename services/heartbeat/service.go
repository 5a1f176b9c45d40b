package heartbeat

import (
	"context"
	"encoding/json"
	"time"

	"motioncode-go/bus"
)

var topicConfigHeartbeat = bus.T("config", "heartbeat")

type Service struct{}

func New() *Service { return &Service{} }

type heartbeatConfig struct {
	Interval int `json:"interval"` // seconds
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			println("Info: heartbeat service stopping")
			return
		case t := <-tick.C:
			println("Info:", t.Format("15:04:05"), "Heartbeat")
		case msg := <-cfgSub.Channel():
			var cfg heartbeatConfig
			switch p := msg.Payload.(type) {
			case []byte:
				if json.Unmarshal(p, &cfg) != nil {
					continue
				}
			case map[string]any:
				if iv, ok := p["interval"].(float64); ok {
					cfg.Interval = int(iv)
				}
			default:
				continue
			}
			if cfg.Interval > 0 {
				tick.Reset(time.Duration(cfg.Interval) * time.Second)
				println("Info: heartbeat interval set to", cfg.Interval, "seconds")
			}
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
