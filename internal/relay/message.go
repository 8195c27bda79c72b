// Package relay defines the canonical conversation model shared by every
// protocol surface. Inbound requests in any supported wire format are
// normalized into ordered Message values before the backend is invoked, and
// backend output is rendered from the same model back into the caller's
// protocol.
package relay

import "strings"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is the protocol-agnostic representation of one conversation turn.
// Parts keep the author-supplied order; an empty Parts slice renders as an
// empty text message, never an error.
type Message struct {
	Role  Role
	Parts []Part
}

// Part is a closed content variant. Consumers switch exhaustively over
// TextPart and ImagePart; unsupported wire shapes never reach this type,
// they are substituted with placeholder TextParts at the protocol edge.
type Part interface {
	isPart()
}

// TextPart carries a plain text fragment.
type TextPart struct {
	Text string
}

// ImagePart carries decoded inline image bytes.
type ImagePart struct {
	MimeType string
	Data     []byte
}

func (TextPart) isPart()  {}
func (ImagePart) isPart() {}

// NewTextMessage builds a single-part text message.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Parts: []Part{TextPart{Text: text}}}
}

// Text concatenates the text parts of the message in order. Image parts do
// not contribute.
func (m Message) Text() string {
	var b strings.Builder
	for _, part := range m.Parts {
		if tp, ok := part.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// HasImage reports whether any part carries image data.
func (m Message) HasImage() bool {
	for _, part := range m.Parts {
		if _, ok := part.(ImagePart); ok {
			return true
		}
	}
	return false
}
