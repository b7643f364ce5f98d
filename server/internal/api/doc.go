// Package api implements the HTTP surface of the dashboard server.
//
// New(deps) returns an http.Handler that serves:
//
//	GET /                  single-page dashboard (two live Plotly charts)
//	GET /api/v1/series     aligned timestamps/labels/temperatures/humidities
//	GET /api/v1/samples    the window as a list of samples, oldest first
//	GET /api/v1/charts     ready-to-plot figures for both charts + refresh_ms
//	GET /api/v1/health     window fill, ingest counters, MQTT state
//
// Every series-derived response is built from a single window snapshot, so
// the three columns always line up. All JSON endpoints set
// Content-Type: application/json and return 405 for non-GET methods.
//
// The dashboard page polls /api/v1/charts every refresh interval. When API key
// auth is enabled the page needs the key in the `key` query parameter.
package api
