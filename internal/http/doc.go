// Package http exposes the session manager over a REST API.
package http
