// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room handler.
const (
	BadSubprotocolError = 3000 // Client offered subprotocols but not "tienlen".
	InvalidRoomIDError  = 3003 // Room ID in the WS URL is malformed.
)
