package ws

const (
	// client - server
	MsgPing = "ping"

	// server - client
	MsgReady       = "ready"
	MsgPong        = "pong"
	MsgPostCreated = "post_created"
	MsgError       = "error"
)
