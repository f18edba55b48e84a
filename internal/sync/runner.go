package sync

import (
	"context"
	"fmt"
	"time"

	goimap "github.com/emersion/go-imap"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	imapx "github.com/asegura/renomail/internal/imap"
	"github.com/asegura/renomail/internal/models"
	"github.com/asegura/renomail/internal/threading"
)

// Provider tags every persisted row with the mailbox source.
const Provider = "zoho_imap"

// Activity log action types.
const (
	ActionClassifiedByTicket = "imap_classified_by_ticket"
	ActionClassifiedByPolicy = "imap_classified_by_policy"
	ActionLeftUnclassified   = "imap_left_unclassified"
	ActionSyncFailed         = "imap_sync_failed"
)

// Inbox is a mailbox session scoped to one sync cycle.
type Inbox interface {
	SearchSince(since time.Time) ([]uint32, error)
	FetchMessages(uids []uint32) ([]*goimap.Message, error)
	Logout() error
}

// Dialer opens a new mailbox session.
type Dialer func(ctx context.Context) (Inbox, error)

// CheckpointStore reads and advances the per-account sync cursor.
type CheckpointStore interface {
	Get(ctx context.Context, account string) (*models.Checkpoint, error)
	Update(ctx context.Context, account string, lastUID uint32) error
}

// RunLocker serializes cycles per account. Acquire returns the release
// function, or ErrSyncAlreadyRunning-like failure when a cycle is in flight.
type RunLocker interface {
	Acquire(ctx context.Context, account string) (func(), error)
}

// MessageStore deduplicates and persists ingested messages.
type MessageStore interface {
	Exists(ctx context.Context, messageID string) (bool, error)
	Insert(ctx context.Context, msg *models.CaseMessage) error
}

// ActivityLog appends audit entries. Failures are tolerated.
type ActivityLog interface {
	Append(ctx context.Context, entry *models.ActivityEntry) error
}

// Resolver classifies one parsed message against the case repository.
type Resolver interface {
	Resolve(ctx context.Context, msg *models.InboundMessage) (*threading.Result, error)
}

// Deps are the collaborators a Runner composes.
type Deps struct {
	Dial        Dialer
	Checkpoints CheckpointStore
	Locks       RunLocker
	Messages    MessageStore
	Resolver    Resolver
	Activity    ActivityLog
	Logger      *logrus.Logger
	Account     string
	MaxPerRun   int
	Enabled     bool
}

// Runner executes one bounded sync cycle per Run call: checkpoint → search
// window → fetch batch → per-message pipeline → checkpoint advance. It is
// the single catch-all: Run always returns a SyncResult and never lets an
// error or panic escape.
type Runner struct {
	dial        Dialer
	checkpoints CheckpointStore
	locks       RunLocker
	messages    MessageStore
	resolver    Resolver
	activity    ActivityLog
	log         *logrus.Logger
	account     string
	maxPerRun   int
	enabled     bool
	now         func() time.Time
}

// NewRunner builds a Runner. MaxPerRun defaults to 50 and a nil Logger to
// the logrus standard logger.
func NewRunner(deps Deps) *Runner {
	if deps.MaxPerRun <= 0 {
		deps.MaxPerRun = 50
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}

	return &Runner{
		dial:        deps.Dial,
		checkpoints: deps.Checkpoints,
		locks:       deps.Locks,
		messages:    deps.Messages,
		resolver:    deps.Resolver,
		activity:    deps.Activity,
		log:         deps.Logger,
		account:     deps.Account,
		maxPerRun:   deps.MaxPerRun,
		enabled:     deps.Enabled,
		now:         time.Now,
	}
}

// Run executes one sync cycle. Connection, search, and fetch failures are
// fatal for the run (checkpoint untouched); everything per-message is
// isolated at the message boundary and the loop keeps going.
func (r *Runner) Run(ctx context.Context) (result models.SyncResult) {
	start := r.now()
	runID := uuid.NewString()
	log := r.log.WithField("run_id", runID)

	result = models.SyncResult{Success: true, Errors: []string{}}
	defer func() {
		if p := recover(); p != nil {
			result.Success = false
			result.Errors = append(result.Errors, fmt.Sprintf("panic: %v", p))
			log.Errorf("sync cycle panicked: %v", p)
		}
		result.DurationMS = r.now().Sub(start).Milliseconds()
	}()

	if !r.enabled {
		log.Info("sync disabled by feature flag, skipping cycle")
		return result
	}

	log.WithField("account", r.account).Info("starting sync cycle")

	release, err := r.locks.Acquire(ctx, r.account)
	if err != nil {
		return r.fail(ctx, &result, log, runID, fmt.Errorf("acquire run lock: %w", err))
	}
	defer release()

	checkpoint, err := r.checkpoints.Get(ctx, r.account)
	if err != nil {
		return r.fail(ctx, &result, log, runID, fmt.Errorf("read checkpoint: %w", err))
	}

	inbox, err := r.dial(ctx)
	if err != nil {
		return r.fail(ctx, &result, log, runID, fmt.Errorf("connect mailbox: %w", err))
	}
	defer func() {
		_ = inbox.Logout()
	}()

	since := imapx.SearchWindow(checkpoint, r.now())
	log.WithField("since", since.Format(time.RFC3339)).Debug("searching mailbox")

	uids, err := inbox.SearchSince(since)
	if err != nil {
		return r.fail(ctx, &result, log, runID, fmt.Errorf("search mailbox: %w", err))
	}

	uids = imapx.LimitNewest(uids, r.maxPerRun)
	log.WithField("uids", len(uids)).Info("mailbox search complete")

	lastUID := checkpoint.LastUID

	if len(uids) > 0 {
		imapMessages, err := inbox.FetchMessages(uids)
		if err != nil {
			return r.fail(ctx, &result, log, runID, fmt.Errorf("fetch messages: %w", err))
		}

		for _, imapMsg := range imapMessages {
			r.processMessage(ctx, log, runID, imapMsg, &result, &lastUID)
		}
	}

	// Even an empty or partially-failed batch advances the checkpoint: the
	// UID only moves up to what actually parsed, and the refreshed timestamp
	// keeps the next search window narrow.
	if err := r.checkpoints.Update(ctx, r.account, lastUID); err != nil {
		return r.fail(ctx, &result, log, runID, fmt.Errorf("update checkpoint: %w", err))
	}

	log.WithFields(logrus.Fields{
		"new":        result.CountNewMessages,
		"classified": result.CountClassified,
		"quarantine": result.CountUnclassified,
		"duplicates": result.CountSkippedDuplicate,
		"errors":     len(result.Errors),
	}).Info("sync cycle complete")

	return result
}

// processMessage runs one message through parse → dedup → resolve → persist
// → log. Any failure is recorded and the rest of the batch continues.
func (r *Runner) processMessage(
	ctx context.Context,
	log *logrus.Entry,
	runID string,
	imapMsg *goimap.Message,
	result *models.SyncResult,
	lastUID *uint32,
) {
	uid := uint32(0)
	if imapMsg != nil {
		uid = imapMsg.Uid
	}

	parsed, err := imapx.ParseMessage(imapMsg)
	if err != nil {
		r.recordMessageError(log, result, uid, fmt.Errorf("parse: %w", err))
		return
	}

	// Parse success is what moves the checkpoint: a message that failed to
	// parse must not be skipped past unless a later one parsed.
	if parsed.UID > *lastUID {
		*lastUID = parsed.UID
	}

	exists, err := r.messages.Exists(ctx, parsed.MessageID)
	if err != nil {
		r.recordMessageError(log, result, uid, fmt.Errorf("dedup check: %w", err))
		return
	}
	if exists {
		result.CountSkippedDuplicate++
		log.WithField("message_id", parsed.MessageID).Debug("skipping duplicate message")
		return
	}

	resolution, err := r.resolver.Resolve(ctx, parsed)
	if err != nil {
		r.recordMessageError(log, result, uid, fmt.Errorf("resolve: %w", err))
		return
	}

	if err := r.messages.Insert(ctx, buildCaseMessage(parsed, resolution)); err != nil {
		r.recordMessageError(log, result, uid, fmt.Errorf("insert: %w", err))
		return
	}

	result.CountNewMessages++
	if resolution.Unclassified {
		result.CountUnclassified++
	} else {
		result.CountClassified++
	}

	log.WithFields(logrus.Fields{
		"uid":        parsed.UID,
		"message_id": parsed.MessageID,
		"method":     resolution.Method,
	}).Info("message ingested")

	r.logActivity(ctx, log, runID, parsed, resolution)
}

// fail marks the run failed, records the error, and best-effort logs it to
// the activity trail. Resources are released by the deferred handlers in Run.
func (r *Runner) fail(ctx context.Context, result *models.SyncResult, log *logrus.Entry, runID string, err error) models.SyncResult {
	log.WithError(err).Error("sync cycle failed")
	result.Success = false
	result.Errors = append(result.Errors, err.Error())

	r.appendActivity(ctx, log, &models.ActivityEntry{
		ActionType: ActionSyncFailed,
		EntityType: "sync",
		Metadata: map[string]any{
			"error":  err.Error(),
			"run_id": runID,
		},
	})

	return *result
}

func (r *Runner) recordMessageError(log *logrus.Entry, result *models.SyncResult, uid uint32, err error) {
	log.WithField("uid", uid).WithError(err).Error("failed to process message")
	result.Errors = append(result.Errors, fmt.Sprintf("UID %d: %s", uid, err.Error()))
}

// logActivity appends the classification outcome for one ingested message.
// A logging failure never fails the message.
func (r *Runner) logActivity(ctx context.Context, log *logrus.Entry, runID string, msg *models.InboundMessage, res *threading.Result) {
	r.appendActivity(ctx, log, &models.ActivityEntry{
		ActionType: actionTypeFor(res.Method),
		EntityType: "email",
		EntityID:   res.CaseID,
		Metadata: map[string]any{
			"message_id":    msg.MessageID,
			"from_email":    msg.FromEmail,
			"subject":       truncateRunes(msg.Subject, 200),
			"ticket":        nullableString(res.Ticket),
			"policy_number": nullableString(res.PolicyNumber),
			"method":        res.Method,
			"run_id":        runID,
		},
	})
}

func (r *Runner) appendActivity(ctx context.Context, log *logrus.Entry, entry *models.ActivityEntry) {
	if err := r.activity.Append(ctx, entry); err != nil {
		log.WithError(err).Warn("failed to append activity entry")
	}
}

func buildCaseMessage(msg *models.InboundMessage, res *threading.Result) *models.CaseMessage {
	return &models.CaseMessage{
		CaseID:       res.CaseID,
		Unclassified: res.Unclassified,
		Direction:    "inbound",
		Provider:     Provider,
		MessageID:    msg.MessageID,
		InReplyTo:    msg.InReplyTo,
		References:   msg.References,
		FromEmail:    msg.FromEmail,
		ToEmails:     msg.ToEmails,
		Subject:      msg.Subject,
		BodyText:     msg.BodyText,
		BodyHTML:     msg.BodyHTML,
		ReceivedAt:   msg.ReceivedAt,
		Metadata: models.MessageMetadata{
			IMAPUID:         msg.UID,
			HasAttachments:  msg.HasAttachments,
			ThreadingMethod: res.Method,
		},
	}
}

func actionTypeFor(method string) string {
	switch method {
	case threading.MethodTicket:
		return ActionClassifiedByTicket
	case threading.MethodPolicy:
		return ActionClassifiedByPolicy
	default:
		return ActionLeftUnclassified
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
