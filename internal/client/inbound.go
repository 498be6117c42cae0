package client

import (
	"encoding/json"
	"time"

	"github.com/nexusai/dashlink/internal/envelope"
)

// inboundFrame is the wire shape of dashboard-to-client messages.
type inboundFrame struct {
	Type    string          `json:"type"`
	Config  map[string]any  `json:"config"`
	Command json.RawMessage `json:"command"`
}

type commandFrame struct {
	Type string `json:"type"`
}

// handleInbound decodes one inbound frame and routes it. Malformed frames
// are logged and dropped; handler errors are isolated to the frame. Only
// transport errors end the connection.
func (c *client) handleInbound(data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		c.logger.Warn("invalid inbound frame, dropping", "error", err)
		return
	}

	switch frame.Type {
	case envelope.TypePing:
		c.sendPong()
	case envelope.TypeConfigUpdate:
		c.applyConfigUpdate(frame.Config)
	case envelope.TypeCommand:
		c.handleCommand(frame.Command)
	case "":
		c.logger.Warn("inbound frame missing type, dropping")
	default:
		// Unknown types are ignored for forward compatibility.
		c.logger.Debug("ignoring inbound message", "type", frame.Type)
	}
}

// sendPong replies immediately with a direct write, ahead of any queued
// traffic.
func (c *client) sendPong() {
	env := envelope.New(envelope.TypePong, map[string]string{"status": "ok"}, c.cfg.SystemID, 0)
	if err := c.send(env); err != nil {
		c.logger.Warn("pong send failed", "error", err)
	}
}

// applyConfigUpdate merges recognized keys into the live publishing
// parameters. Unrecognized keys are ignored.
func (c *client) applyConfigUpdate(cfg map[string]any) {
	if len(cfg) == 0 {
		return
	}

	c.paramMu.Lock()
	defer c.paramMu.Unlock()

	for key, value := range cfg {
		switch key {
		case "send_interval":
			if secs, ok := asFloat(value); ok && secs > 0 {
				c.sendInterval = time.Duration(secs * float64(time.Second))
				c.logger.Info("config updated", "key", key, "value", c.sendInterval)
			}
		case "batch_size":
			if n, ok := asFloat(value); ok && n >= 1 {
				c.batchSize = int(n)
				c.logger.Info("config updated", "key", key, "value", c.batchSize)
			}
		case "compress_data":
			if b, ok := value.(bool); ok {
				c.compress = b
				c.logger.Info("config updated", "key", key, "value", b)
			}
		default:
			c.logger.Debug("ignoring unrecognized config key", "key", key)
		}
	}
}

// handleCommand dispatches a dashboard command from the fixed command
// table.
func (c *client) handleCommand(raw json.RawMessage) {
	var cmd commandFrame
	if err := json.Unmarshal(raw, &cmd); err != nil || cmd.Type == "" {
		c.logger.Warn("invalid command frame, dropping")
		return
	}

	c.logger.Info("dashboard command received", "command", cmd.Type)

	switch cmd.Type {
	case "get_status":
		if err := c.PublishSystemStatus(); err != nil {
			c.logger.Warn("status publish failed", "error", err)
		}
	case "restart":
		// The client only emits the signal; restarting is the host's job.
		if c.cfg.OnRestart != nil {
			c.cfg.OnRestart()
		} else {
			c.logger.Info("restart requested but no restart hook configured")
		}
	default:
		c.logger.Debug("ignoring unknown command", "command", cmd.Type)
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
