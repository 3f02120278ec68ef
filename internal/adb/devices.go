package adb

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// DeviceState is the normalized connection state of a device.
type DeviceState string

const (
	StateOnline       DeviceState = "online"
	StateOffline      DeviceState = "offline"
	StateUnauthorized DeviceState = "unauthorized"
)

// Device is one row of `adb devices -l`, re-fetched on every poll; the
// visible set always reflects the last invocation only.
type Device struct {
	Serial      string
	State       DeviceState
	Model       string
	Product     string
	TransportID string
}

// Label returns a display name for the device.
func (d Device) Label() string {
	if d.Model != "" {
		return fmt.Sprintf("%s (%s)", d.Model, d.Serial)
	}
	return d.Serial
}

// Devices enumerates connected devices via `adb devices -l`. An empty
// result with nil error means the bridge reported zero devices.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	c.EnsureServer(ctx)
	out, errOut, err := c.run(ctx, "devices", "-l")
	if err != nil {
		return nil, classify("devices", "", out, errOut, err, KindBridgeUnavailable)
	}
	devices := parseDevices(out)
	sort.Slice(devices, func(i, j int) bool { return devices[i].Serial < devices[j].Serial })
	return devices, nil
}

// DeviceModel resolves the marketing model name of a device, falling back
// to a serial-derived label when getprop fails.
func (c *Client) DeviceModel(ctx context.Context, serial string) string {
	out, _, err := c.runSerial(ctx, serial, "shell", "getprop", "ro.product.model")
	if err == nil {
		if model := strings.TrimSpace(out); model != "" {
			return model
		}
	}
	if len(serial) > 8 {
		return "Device " + serial[:8]
	}
	return "Device " + serial
}

// mapState normalizes raw adb state tokens.
func mapState(raw string) DeviceState {
	switch raw {
	case "device":
		return StateOnline
	case "unauthorized":
		return StateUnauthorized
	default:
		return StateOffline
	}
}

func parseDevices(output string) []Device {
	var res []Device
	for _, ln := range strings.Split(output, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		// Skip headers and noise from server startup
		if strings.HasPrefix(ln, "List of devices") ||
			strings.HasPrefix(ln, "*") ||
			strings.Contains(ln, "daemon") ||
			strings.Contains(ln, "adb server") {
			continue
		}
		f := strings.Fields(ln)
		if len(f) < 2 {
			continue
		}
		d := Device{Serial: f[0]}
		rest := f[1:]
		// second token is the state when it carries no key:value colon
		if len(rest) > 0 && !strings.Contains(rest[0], ":") {
			d.State = mapState(rest[0])
			rest = rest[1:]
		}
		for _, tok := range rest {
			kv := strings.SplitN(tok, ":", 2)
			if len(kv) != 2 {
				continue
			}
			switch kv[0] {
			case "product":
				d.Product = kv[1]
			case "model":
				d.Model = kv[1]
			case "transport_id":
				d.TransportID = kv[1]
			}
		}
		if d.Serial != "" {
			res = append(res, d)
		}
	}
	return res
}
