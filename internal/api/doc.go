// Package api exposes the memorization engine over HTTP. Handlers decode
// and validate requests, call memorization.Service and map its errors to
// status codes with messages safe to show a client.
package api
