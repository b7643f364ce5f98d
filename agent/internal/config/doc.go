// Package config loads and watches the sensor agent configuration file.
//
// Top-level types:
//   - Config{Agent}: full config tree parsed from YAML
//   - AgentConfig: broker, topic, client_id, username/password_env,
//     keep_alive, connect_timeout, publish_interval, buffer_size, sensor, log
//   - Channel: base, jitter, min, max for one simulated quantity
//
// Load(path) reads the YAML file, applies defaults (public HiveMQ broker,
// iot/fake/sensors, 5s interval, 100 buffered readings, DHT22 ranges), then
// validates.
//
// Watch(ctx, path, onChange) uses fsnotify on the parent directory so that
// atomic-save editors (write temp file, rename) keep triggering reloads.
// Bursts of events are coalesced into a single reload.
package config
