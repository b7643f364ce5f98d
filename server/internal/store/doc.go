// Package store holds the sliding window of recent sensor samples. Window is a
// fixed-capacity circular buffer shared by the MQTT delivery goroutine, which
// appends, and the HTTP and WebSocket handlers, which take snapshots.
package store
