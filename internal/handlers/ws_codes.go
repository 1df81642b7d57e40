// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the live game feed.
const (
	BadSubprotocolError = 3000 // Client connected without the "game" subprotocol.
	SlowConsumerError   = 3001 // Subscriber fell too far behind and was dropped.
)
