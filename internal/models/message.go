package models

import "time"

// InboundMessage is the normalized, in-memory form of one fetched mailbox
// message. It lives for a single pipeline pass and is never persisted as-is.
type InboundMessage struct {
	MessageID      string
	InReplyTo      *string
	References     *string
	FromEmail      string
	ToEmails       []string
	Subject        string
	BodyText       *string
	BodyHTML       *string
	ReceivedAt     time.Time
	HasAttachments bool
	UID            uint32
}

// SearchText returns the text the threading resolver scans for reference
// tokens. The HTML body is intentionally excluded.
func (m *InboundMessage) SearchText() string {
	text := ""
	if m.BodyText != nil {
		text = *m.BodyText
	}
	return m.Subject + " " + text
}

// MessageMetadata is stored as JSONB alongside each persisted message.
type MessageMetadata struct {
	IMAPUID         uint32 `json:"imap_uid"`
	HasAttachments  bool   `json:"has_attachments"`
	ThreadingMethod string `json:"threading_method"`
}

// CaseMessage is the persisted form of an ingested message, threaded to a
// case or explicitly left unclassified. Exactly one of CaseID != nil or
// Unclassified holds for every row.
type CaseMessage struct {
	ID           string          `json:"id"`
	CaseID       *string         `json:"case_id"`
	Unclassified bool            `json:"unclassified"`
	Direction    string          `json:"direction"`
	Provider     string          `json:"provider"`
	MessageID    string          `json:"message_id"`
	InReplyTo    *string         `json:"in_reply_to"`
	References   *string         `json:"references"`
	FromEmail    string          `json:"from_email"`
	ToEmails     []string        `json:"to_emails"`
	Subject      string          `json:"subject"`
	BodyText     *string         `json:"body_text"`
	BodyHTML     *string         `json:"body_html"`
	ReceivedAt   time.Time       `json:"received_at"`
	Metadata     MessageMetadata `json:"metadata"`
	CreatedAt    time.Time       `json:"created_at"`
}
