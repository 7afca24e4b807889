package irisfast

import "context"

// MessageCallback receives every chat message pushed by the bridge.
type MessageCallback func(message *Message)

type StateCallback func(state WebSocketState)

// Ingress is the push side of the bridge. Callbacks are identified by the id
// returned at registration.
type Ingress interface {
	Connect(ctx context.Context) error
	OnMessage(cb MessageCallback) int
	RemoveMessageCallback(id int)
	OnStateChange(cb StateCallback) int
	RemoveStateCallback(id int)
	State() WebSocketState
	Close(ctx context.Context) error
}

// frameWriter is what the websocket egress needs from a connection.
type frameWriter interface {
	Connected() bool
	WriteJSON(ctx context.Context, v any) error
}

var (
	_ Ingress     = (*WebSocket)(nil)
	_ frameWriter = (*WebSocket)(nil)
)
