package sync

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/asegura/renomail/internal/config"
	"github.com/asegura/renomail/internal/db"
	imapx "github.com/asegura/renomail/internal/imap"
	"github.com/asegura/renomail/internal/threading"
)

// NewPipeline wires the production sync runner from config and a database
// pool: real IMAP dialer, Postgres-backed stores, and the two-stage resolver.
func NewPipeline(cfg *config.Config, pool *pgxpool.Pool, logger *logrus.Logger) *Runner {
	dialConfig := imapx.DialConfig{
		Address:  cfg.GetIMAPAddress(),
		UseTLS:   cfg.IMAPUseTLS,
		Username: cfg.IMAPUsername,
		Password: cfg.IMAPPassword,
		Folder:   cfg.IMAPFolder,
	}

	dial := func(ctx context.Context) (Inbox, error) {
		session, err := imapx.Dial(dialConfig)
		if err != nil {
			return nil, err
		}
		return session, nil
	}

	return NewRunner(Deps{
		Dial:        dial,
		Checkpoints: db.NewCheckpointStore(pool),
		Locks:       db.NewRunLock(pool),
		Messages:    db.NewCaseMessageStore(pool),
		Resolver:    threading.NewResolver(db.NewCaseRepository(pool), cfg.CaseType),
		Activity:    db.NewActivityLog(pool),
		Logger:      logger,
		Account:     cfg.IMAPUsername,
		MaxPerRun:   cfg.MaxMessagesPerRun,
		Enabled:     cfg.SyncEnabled,
	})
}
