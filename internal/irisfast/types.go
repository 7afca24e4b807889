package irisfast

// Config is the bridge configuration returned by GET /config.
type Config struct {
	BotName           string `json:"bot_name"`
	BotID             int64  `json:"bot_id"`
	Port              int    `json:"bot_http_port"`
	PollingSpeed      int    `json:"db_polling_rate"`
	MessageRate       int    `json:"message_send_rate"`
	WebserverEndpoint string `json:"web_server_endpoint"`
}

// ReplyRequest is the body of POST /reply and of websocket reply frames.
type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

// ImageReplyRequest carries a base64 encoded PNG.
type ImageReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}

// Message is one inbound chat event.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

type MessageJSON struct {
	UserID  string `json:"user_id"`
	ChatID  string `json:"chat_id,omitempty"`
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
}

// SenderName returns the most stable identifier for the author of m.
func (m *Message) SenderName() string {
	if m == nil {
		return ""
	}
	if m.JSON != nil && m.JSON.UserID != "" {
		return m.JSON.UserID
	}
	if m.Sender != nil {
		return *m.Sender
	}
	return ""
}

type WebSocketState int

const (
	WSStateDisconnected WebSocketState = iota
	WSStateConnecting
	WSStateConnected
	WSStateReconnecting
	WSStateFailed
)

func (s WebSocketState) String() string {
	switch s {
	case WSStateDisconnected:
		return "disconnected"
	case WSStateConnecting:
		return "connecting"
	case WSStateConnected:
		return "connected"
	case WSStateReconnecting:
		return "reconnecting"
	case WSStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
