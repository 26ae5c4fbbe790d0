// Package timeouts defines shared timeout constants used by the web service.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// Attach caps how long a new live connection waits for its modules to attach.
const Attach = 10 * time.Second

// Dispatch caps how long a transport waits to queue an event on a busy session.
const Dispatch = 2 * time.Second

// SocketWrite caps a single websocket frame write.
const SocketWrite = 5 * time.Second

// Storage caps one bookmark store call.
const Storage = 3 * time.Second
