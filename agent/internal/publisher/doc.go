// Package publisher sends sensor readings to the MQTT broker.
//
// Publish(reading) is non-blocking: readings go into a bounded buffer and,
// when it is full, the oldest reading is dropped so the dashboard always gets
// the freshest data once the broker is back.
//
// Run(ctx) owns the connection. It dials the broker, sends CONNECT, then
// drains the buffer as JSON PUBLISH packets (QoS 0, not retained). When the
// connection drops it reconnects with truncated exponential backoff
// (1s doubling to 60s, ±25% jitter). A reading whose PUBLISH fails is put
// back in the buffer if there is room.
//
// Payload format:
//
//	{"temperature": 22.4, "humidity": 46.1}
package publisher
