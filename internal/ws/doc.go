// Package ws streams terminal I/O over WebSocket.
//
// One connection attaches to one session. Output flows to the client as
// binary frames; the client sends JSON control messages:
//
//	{"type": "input", "data": "ls\n"}
//	{"type": "resize", "rows": 50, "cols": 132}
//	{"type": "ping"}
//
// When the session's child exits the server sends a final
// {"type": "exit", ...} message and closes the connection.
package ws
