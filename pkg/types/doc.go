// Package types defines the Go types shared by the agent and the server:
// the Reading wire payload a sensor publishes, the Sample the server keeps in
// its sliding window, and the aligned Series handed to chart renderers.
package types
