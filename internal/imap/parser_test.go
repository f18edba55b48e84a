package imap

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
)

func makeTestMessage(uid uint32, envelope *imap.Envelope, raw string) *imap.Message {
	msg := &imap.Message{Uid: uid, Envelope: envelope}
	if raw != "" {
		section := &imap.BodySectionName{}
		msg.Body = map[*imap.BodySectionName]imap.Literal{
			section: bytes.NewBufferString(raw),
		}
	}
	return msg
}

func TestParseMessage(t *testing.T) {
	sentAt := time.Date(2025, 6, 10, 9, 30, 0, 0, time.UTC)

	t.Run("parses a plain text message", func(t *testing.T) {
		raw := strings.Join([]string{
			"Message-ID: <abc@example.com>",
			"In-Reply-To: <root@example.com>",
			"References: <root@example.com> <mid@example.com>",
			"From: sender@example.com",
			"To: inbox@example.com",
			"Subject: Re: Renovación REN-2501-00042",
			"Content-Type: text/plain; charset=utf-8",
			"",
			"adjunto archivo",
			"",
		}, "\r\n")

		envelope := &imap.Envelope{
			Date:      sentAt,
			Subject:   "Re: Renovación REN-2501-00042",
			MessageId: "<abc@example.com>",
			InReplyTo: "<root@example.com>",
			From:      []*imap.Address{{MailboxName: "sender", HostName: "example.com"}},
			To: []*imap.Address{
				{MailboxName: "inbox", HostName: "example.com"},
				{MailboxName: "copy", HostName: "example.com"},
			},
		}

		msg, err := ParseMessage(makeTestMessage(7, envelope, raw))
		if err != nil {
			t.Fatalf("ParseMessage failed: %v", err)
		}

		if msg.MessageID != "<abc@example.com>" {
			t.Errorf("expected message id '<abc@example.com>', got '%s'", msg.MessageID)
		}
		if msg.UID != 7 {
			t.Errorf("expected UID 7, got %d", msg.UID)
		}
		if msg.FromEmail != "sender@example.com" {
			t.Errorf("expected from 'sender@example.com', got '%s'", msg.FromEmail)
		}
		if len(msg.ToEmails) != 2 || msg.ToEmails[0] != "inbox@example.com" {
			t.Errorf("unexpected recipients: %v", msg.ToEmails)
		}
		if msg.InReplyTo == nil || *msg.InReplyTo != "<root@example.com>" {
			t.Errorf("unexpected in-reply-to: %v", msg.InReplyTo)
		}
		if msg.References == nil || !strings.Contains(*msg.References, "<mid@example.com>") {
			t.Errorf("unexpected references: %v", msg.References)
		}
		if msg.BodyText == nil || !strings.Contains(*msg.BodyText, "adjunto archivo") {
			t.Errorf("unexpected body text: %v", msg.BodyText)
		}
		if msg.HasAttachments {
			t.Error("expected no attachments")
		}
		if !msg.ReceivedAt.Equal(sentAt) {
			t.Errorf("expected received at %s, got %s", sentAt, msg.ReceivedAt)
		}
	})

	t.Run("synthesizes a message id when the header is absent", func(t *testing.T) {
		envelope := &imap.Envelope{Date: sentAt, Subject: "no id"}

		msg, err := ParseMessage(makeTestMessage(12, envelope, ""))
		if err != nil {
			t.Fatalf("ParseMessage failed: %v", err)
		}

		if !strings.HasPrefix(msg.MessageID, "gen-12-") {
			t.Errorf("expected synthesized id with prefix 'gen-12-', got '%s'", msg.MessageID)
		}
	})

	t.Run("falls back to now for a missing date", func(t *testing.T) {
		envelope := &imap.Envelope{MessageId: "<x@example.com>"}

		msg, err := ParseMessage(makeTestMessage(3, envelope, ""))
		if err != nil {
			t.Fatalf("ParseMessage failed: %v", err)
		}

		if msg.ReceivedAt.IsZero() {
			t.Error("expected received at to fall back to now")
		}
	})

	t.Run("detects attachments", func(t *testing.T) {
		raw := strings.Join([]string{
			"Message-ID: <att@example.com>",
			"From: sender@example.com",
			"Subject: con adjunto",
			`Content-Type: multipart/mixed; boundary="frontier"`,
			"",
			"--frontier",
			"Content-Type: text/plain; charset=utf-8",
			"",
			"la póliza va adjunta",
			"--frontier",
			"Content-Type: application/pdf; name=\"poliza.pdf\"",
			"Content-Disposition: attachment; filename=\"poliza.pdf\"",
			"Content-Transfer-Encoding: base64",
			"",
			"JVBERi0xLjQK",
			"--frontier--",
			"",
		}, "\r\n")

		envelope := &imap.Envelope{
			Date:      sentAt,
			Subject:   "con adjunto",
			MessageId: "<att@example.com>",
		}

		msg, err := ParseMessage(makeTestMessage(9, envelope, raw))
		if err != nil {
			t.Fatalf("ParseMessage failed: %v", err)
		}

		if !msg.HasAttachments {
			t.Error("expected attachment flag to be set")
		}
		if msg.BodyText == nil || !strings.Contains(*msg.BodyText, "adjunta") {
			t.Errorf("unexpected body text: %v", msg.BodyText)
		}
	})

	t.Run("keeps headers when the body fails to parse", func(t *testing.T) {
		envelope := &imap.Envelope{
			Date:      sentAt,
			Subject:   "broken body",
			MessageId: "<broken@example.com>",
		}

		msg, err := ParseMessage(makeTestMessage(4, envelope, "\x00not a mime message"))
		if err != nil {
			t.Fatalf("ParseMessage failed: %v", err)
		}

		if msg.MessageID != "<broken@example.com>" {
			t.Errorf("expected headers to survive, got message id '%s'", msg.MessageID)
		}
	})

	t.Run("rejects a message without an envelope", func(t *testing.T) {
		if _, err := ParseMessage(makeTestMessage(5, nil, "")); err == nil {
			t.Error("expected error for missing envelope")
		}
	})

	t.Run("rejects a nil message", func(t *testing.T) {
		if _, err := ParseMessage(nil); err == nil {
			t.Error("expected error for nil message")
		}
	})
}

func TestFormatBareAddress(t *testing.T) {
	t.Run("formats a bare email", func(t *testing.T) {
		address := &imap.Address{MailboxName: "jane", HostName: "example.com"}
		if got := formatBareAddress(address); got != "jane@example.com" {
			t.Errorf("expected jane@example.com, got %s", got)
		}
	})

	t.Run("ignores the personal name", func(t *testing.T) {
		address := &imap.Address{PersonalName: "Jane Doe", MailboxName: "jane", HostName: "example.com"}
		if got := formatBareAddress(address); got != "jane@example.com" {
			t.Errorf("expected jane@example.com, got %s", got)
		}
	})

	t.Run("returns empty string for nil address", func(t *testing.T) {
		if got := formatBareAddress(nil); got != "" {
			t.Errorf("expected empty string, got %s", got)
		}
	})

	t.Run("drops empty addresses from lists", func(t *testing.T) {
		addresses := []*imap.Address{
			{MailboxName: "a", HostName: "example.com"},
			{},
			nil,
		}
		got := formatBareAddressList(addresses)
		if len(got) != 1 || got[0] != "a@example.com" {
			t.Errorf("unexpected list: %v", got)
		}
	})
}
