// Package ingest turns raw MQTT payloads into window samples.
//
// Adapter.Handle is called once per inbound message on the MQTT delivery
// goroutine. It decodes the payload with Decode, stamps the arrival time and
// appends exactly one sample to the window. A payload that fails to decode is
// logged, counted and dropped; it never reaches the window and never stops
// delivery of the messages that follow.
//
// Decode accepts a JSON object with numeric "temperature" and "humidity"
// fields. Any other field is ignored. Values are not range-checked.
package ingest
