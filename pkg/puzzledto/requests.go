package puzzledto

type RequestMeta struct {
	SessionID string
	Room      string
	Sender    string
}
