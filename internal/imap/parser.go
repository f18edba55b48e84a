package imap

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-imap"
	"github.com/jhillyerd/enmime"

	"github.com/asegura/renomail/internal/models"
)

// ParseMessage converts a fetched IMAP message into an InboundMessage.
// A missing envelope is a parse failure; a body that fails to parse degrades
// to headers-only so the message is still ingested.
func ParseMessage(imapMsg *imap.Message) (*models.InboundMessage, error) {
	if imapMsg == nil {
		return nil, fmt.Errorf("imap message is nil")
	}

	envelope := imapMsg.Envelope
	if envelope == nil {
		return nil, fmt.Errorf("message UID %d has no envelope", imapMsg.Uid)
	}

	msg := &models.InboundMessage{
		UID:     imapMsg.Uid,
		Subject: envelope.Subject,
	}

	// Every ingested item needs a usable identity, even when the server
	// never saw a Message-ID header.
	msg.MessageID = envelope.MessageId
	if msg.MessageID == "" {
		msg.MessageID = fmt.Sprintf("gen-%d-%d", imapMsg.Uid, time.Now().UnixMilli())
	}

	if envelope.InReplyTo != "" {
		inReplyTo := envelope.InReplyTo
		msg.InReplyTo = &inReplyTo
	}

	if len(envelope.From) > 0 {
		msg.FromEmail = formatBareAddress(envelope.From[0])
	}
	msg.ToEmails = formatBareAddressList(envelope.To)

	msg.ReceivedAt = envelope.Date
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}

	if bodyReader := imapMsg.GetBody(&imap.BodySectionName{}); bodyReader != nil {
		// A body that fails to parse keeps the headers-only record.
		_ = parseBody(bodyReader, msg)
	}

	return msg, nil
}

// parseBody parses the raw message source using enmime.
func parseBody(bodyReader io.Reader, msg *models.InboundMessage) error {
	envelope, err := enmime.ReadEnvelope(bodyReader)
	if err != nil {
		return fmt.Errorf("failed to parse message body: %w", err)
	}

	if envelope.Text != "" {
		text := envelope.Text
		msg.BodyText = &text
	}
	if envelope.HTML != "" {
		html := envelope.HTML
		msg.BodyHTML = &html
	}

	// The References header is not part of the IMAP envelope.
	if refs := envelope.GetHeader("References"); refs != "" {
		msg.References = &refs
	}
	if msg.InReplyTo == nil {
		if irt := envelope.GetHeader("In-Reply-To"); irt != "" {
			msg.InReplyTo = &irt
		}
	}

	msg.HasAttachments = len(envelope.Attachments) > 0

	return nil
}

// formatBareAddress formats an IMAP address as a bare email address.
func formatBareAddress(address *imap.Address) string {
	if address == nil {
		return ""
	}

	if address.MailboxName == "" && address.HostName == "" {
		return ""
	}

	return fmt.Sprintf("%s@%s", address.MailboxName, address.HostName)
}

// formatBareAddressList formats a list of IMAP addresses, dropping empties.
func formatBareAddressList(addresses []*imap.Address) []string {
	result := make([]string, 0, len(addresses))
	for _, address := range addresses {
		formatted := formatBareAddress(address)
		if formatted != "" {
			result = append(result, formatted)
		}
	}
	return result
}
