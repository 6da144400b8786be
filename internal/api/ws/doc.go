// Package ws streams engine events to the front-end over WebSocket.
//
// Every connection receives engagement window changes and console lifecycle
// events (opened, closed). After a console.subscribe message it also receives
// the open console's own events until that console closes.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - console.subscribe: Follow the open console
//   - console.unsubscribe: Stop following it
//
// Message Types (Server → Client):
//   - system: Connection established
//   - pong, console.subscribed, console.unsubscribed
//   - window.* and console.*: Forwarded events with topic, seq and payload
//   - error: Request could not be served
//
// Example Usage:
//
//	handler := ws.NewHandler(bus, consoles, logger).WithMetrics(metrics)
//	router.GET("/stream", handler.HandleConnection)
package ws
