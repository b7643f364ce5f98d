// Package config loads the dashboard server configuration from the `server:`
// and `mqtt:` sections of config.yaml (an `agent:` key is ignored).
//
// Config fields:
//   - Server.HTTPPort         REST API, dashboard page, WebSocket and /metrics (default 8080)
//   - Server.GRPCPort         gRPC health service (default 50051)
//   - Server.Window.Capacity  samples kept in the sliding window (default 50)
//   - Server.RefreshInterval  dashboard poll and WebSocket push period (default 2s)
//   - Server.Auth             optional API key for HTTP and gRPC clients
//   - Server.Log              level (debug|info|warn|error) and format (json|text)
//   - MQTT.Broker, MQTT.Topic  where sensor readings arrive (broker.hivemq.com:1883, iot/fake/sensors)
//   - MQTT.Embedded           run an in-process broker instead of dialling out
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, fn) reloads the file on change and hands valid configs to fn.
package config
