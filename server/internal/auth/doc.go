// Package auth guards the dashboard's HTTP API and gRPC health service with
// an optional shared API key.
//
// Middleware(mode, header, key) wraps an http.Handler; UnaryInterceptor with
// the same arguments guards gRPC calls. When mode != "apikey" or key == ""
// every request passes through, which is the usual setup for a dashboard on a
// private network. A missing or wrong key yields 401 (HTTP) or
// codes.Unauthenticated (gRPC).
package auth
