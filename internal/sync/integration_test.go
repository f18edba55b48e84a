package sync

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asegura/renomail/internal/db"
	imapx "github.com/asegura/renomail/internal/imap"
	"github.com/asegura/renomail/internal/testutil"
	"github.com/asegura/renomail/internal/threading"
)

// TestRunEndToEnd drives a full cycle against a live in-memory IMAP server
// and a real Postgres. The memory mailbox ships with one canned message, so
// every count below includes it as an extra unclassified ingest.
func TestRunEndToEnd(t *testing.T) {
	pool := testutil.NewTestDB(t)
	defer pool.Close()

	srv := testutil.NewTestIMAPServer(t)
	defer srv.Close()

	ctx := context.Background()

	ticketCaseID := testutil.InsertCase(t, pool, "REN-2501-00042", "renovacion", "", "abierto")
	policyCaseID := testutil.InsertCase(t, pool, "REN-2501-00050", "renovacion", "04-1234-56789", "en_proceso")

	now := time.Now()
	srv.AddMessage(t, "INBOX", "<ticket@example.com>",
		"Re: Renovación REN-2501-00042",
		"cliente@example.com", "ops@example.com",
		"Adjunto lo solicitado.", now)
	srv.AddMessage(t, "INBOX", "<policy@example.com>",
		"Consulta sobre mi póliza",
		"cliente@example.com", "ops@example.com",
		"Les escribo por la póliza 04-1234-56789, quisiera saber el estado.", now)
	srv.AddMessage(t, "INBOX", "<nothing@example.com>",
		"Consulta general",
		"otro@example.com", "ops@example.com",
		"Buenos días, quisiera información.", now)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	runner := NewRunner(Deps{
		Dial: func(_ context.Context) (Inbox, error) {
			return imapx.Dial(imapx.DialConfig{
				Address:  srv.Address,
				UseTLS:   false,
				Username: srv.Username(),
				Password: srv.Password(),
				Folder:   "INBOX",
			})
		},
		Checkpoints: db.NewCheckpointStore(pool),
		Locks:       db.NewRunLock(pool),
		Messages:    db.NewCaseMessageStore(pool),
		Resolver:    threading.NewResolver(db.NewCaseRepository(pool), "renovacion"),
		Activity:    db.NewActivityLog(pool),
		Logger:      logger,
		Account:     srv.Username(),
		Enabled:     true,
	})

	result := runner.Run(ctx)

	require.True(t, result.Success, "cycle errors: %v", result.Errors)
	assert.Equal(t, 4, result.CountNewMessages)
	assert.Equal(t, 2, result.CountClassified)
	assert.Equal(t, 2, result.CountUnclassified)
	assert.Equal(t, 0, result.CountSkippedDuplicate)
	assert.Empty(t, result.Errors)

	var method string
	err := pool.QueryRow(ctx, `
		SELECT metadata->>'threading_method'
		FROM case_messages
		WHERE case_id = $1
	`, ticketCaseID).Scan(&method)
	require.NoError(t, err)
	assert.Equal(t, "ticket", method)

	err = pool.QueryRow(ctx, `
		SELECT metadata->>'threading_method'
		FROM case_messages
		WHERE case_id = $1
	`, policyCaseID).Scan(&method)
	require.NoError(t, err)
	assert.Equal(t, "policy", method)

	var unclassified int
	err = pool.QueryRow(ctx, `
		SELECT count(*) FROM case_messages WHERE unclassified
	`).Scan(&unclassified)
	require.NoError(t, err)
	assert.Equal(t, 2, unclassified)

	checkpoint, err := db.NewCheckpointStore(pool).Get(ctx, srv.Username())
	require.NoError(t, err)
	assert.Greater(t, checkpoint.LastUID, uint32(0))
	require.NotNil(t, checkpoint.LastSyncedAt)

	// Same mailbox again: everything dedups, nothing new lands.
	rerun := runner.Run(ctx)

	require.True(t, rerun.Success, "rerun errors: %v", rerun.Errors)
	assert.Equal(t, 0, rerun.CountNewMessages)
	assert.Equal(t, 4, rerun.CountSkippedDuplicate)

	var total int
	err = pool.QueryRow(ctx, `SELECT count(*) FROM case_messages`).Scan(&total)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
}
