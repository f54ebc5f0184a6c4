// Package server wires configuration, logging, metrics, the session
// manager and the HTTP/WebSocket surface into a runnable service.
package server
