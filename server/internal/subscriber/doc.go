// Package subscriber is the MQTT side of the dashboard: it keeps one
// subscription to the sensor topic alive and hands every delivered payload to
// a Handler (in production, ingest.Adapter.Handle).
//
// Subscriber.Run dials the broker, sends CONNECT (MQTT v5, clean start), and
// SUBSCRIBEs at QoS 0. When the connection drops, either through a client
// error or a server DISCONNECT, Run reconnects with truncated exponential
// backoff (1s→60s, ±25% jitter). Cancelling the context sends DISCONNECT and
// returns; an append already in progress finishes first because the handler
// runs to completion on paho's delivery goroutine.
//
// Messages are delivered at most once from the dashboard's point of view.
// Duplicates or reordering by the broker are passed through as received.
package subscriber
