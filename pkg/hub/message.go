// Package hub provides a websocket broadcast hub using the channel-based
// fan-out pattern. The dashboard uses one hub per stream: JSON frame
// results on one, binary JPEG frames on the other.
package hub

// MessageType indicates the websocket message format.
type MessageType int

const (
	// JSONMessage is a JSON-encoded message.
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data (JPEG frames).
	BinaryMessage
)

// Message is a payload to broadcast to all connected clients.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON bytes.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps binary data.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}
