package imap

import (
	"fmt"

	"github.com/emersion/go-imap/client"
)

// DialConfig holds everything needed to open a read-only mailbox session.
type DialConfig struct {
	Address  string
	UseTLS   bool
	Username string
	Password string
	Folder   string
}

// Session is a logged-in IMAP connection with one folder selected read-only.
// A session is acquired once per sync cycle and must be closed with Logout
// on every exit path.
type Session struct {
	client *client.Client
	folder string
}

// Dial connects, authenticates, and selects the configured folder read-only.
// No flags are mutated and no messages are marked read through a session.
func Dial(cfg DialConfig) (*Session, error) {
	c, err := ConnectToIMAP(cfg.Address, cfg.UseTLS)
	if err != nil {
		return nil, err
	}

	if err := Login(c, cfg.Username, cfg.Password); err != nil {
		_ = c.Logout()
		return nil, err
	}

	folder := cfg.Folder
	if folder == "" {
		folder = "INBOX"
	}

	if _, err := c.Select(folder, true); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("failed to select folder %s: %w", folder, err)
	}

	return &Session{client: c, folder: folder}, nil
}

// Folder returns the name of the selected folder.
func (s *Session) Folder() string {
	return s.folder
}

// Logout closes the connection. Safe to defer; errors are returned but the
// connection is gone either way.
func (s *Session) Logout() error {
	if s.client == nil {
		return nil
	}
	return s.client.Logout()
}
