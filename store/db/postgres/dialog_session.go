package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/oponexis/tirebot/store"
)

// StartDialogSession deactivates the prior active session(s) for the
// (user, chat) pair and inserts the new one in a single transaction. The
// partial unique index on (user_id, chat_id) WHERE is_active guarantees the
// at-most-one-active invariant even under rapid repeated start commands.
func (d *DB) StartDialogSession(ctx context.Context, start *store.StartDialogSession) (*store.DialogSession, error) {
	data, err := json.Marshal(start.Data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal dialog data")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin tx")
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx,
		"UPDATE dialog_session SET is_active = FALSE, updated_ts = $1 WHERE user_id = $2 AND chat_id = $3 AND is_active",
		now, start.UserID, start.ChatID,
	); err != nil {
		return nil, errors.Wrap(err, "failed to deactivate dialog sessions")
	}

	session := store.DialogSession{
		UID:       store.NewSessionUID(),
		UserID:    start.UserID,
		ChatID:    start.ChatID,
		Mode:      start.Mode,
		Step:      start.Step,
		Data:      start.Data,
		IsActive:  true,
		CreatedTs: now,
		UpdatedTs: now,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO dialog_session (uid, user_id, chat_id, mode, step, data, is_active, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8)
		RETURNING id
	`,
		session.UID,
		session.UserID,
		session.ChatID,
		string(session.Mode),
		session.Step,
		string(data),
		now,
		now,
	).Scan(&session.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create dialog session")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit tx")
	}

	return &session, nil
}

func (d *DB) FindActiveDialogSession(ctx context.Context, userID, chatID string) (*store.DialogSession, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, uid, user_id, chat_id, mode, step, data, is_active, created_ts, updated_ts
		FROM dialog_session
		WHERE user_id = $1 AND chat_id = $2 AND is_active
	`, userID, chatID)

	session, err := scanDialogSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find active dialog session")
	}
	return session, nil
}

func (d *DB) UpdateDialogSession(ctx context.Context, update *store.UpdateDialogSession) (*store.DialogSession, error) {
	set, args := []string{}, []any{}

	if update.Mode != nil {
		args = append(args, string(*update.Mode))
		set = append(set, "mode = "+placeholder(len(args)))
	}
	if update.Step != nil {
		args = append(args, *update.Step)
		set = append(set, "step = "+placeholder(len(args)))
	}
	if update.Data != nil {
		data, err := json.Marshal(update.Data)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal dialog data")
		}
		args = append(args, string(data))
		set = append(set, "data = "+placeholder(len(args)))
	}
	if update.IsActive != nil {
		args = append(args, *update.IsActive)
		set = append(set, "is_active = "+placeholder(len(args)))
	}

	args = append(args, time.Now().Unix())
	set = append(set, "updated_ts = "+placeholder(len(args)))
	args = append(args, update.ID)

	row := d.db.QueryRowContext(ctx, `
		UPDATE dialog_session SET `+strings.Join(set, ", ")+`
		WHERE id = `+placeholder(len(args))+`
		RETURNING id, uid, user_id, chat_id, mode, step, data, is_active, created_ts, updated_ts
	`, args...)

	session, err := scanDialogSession(row)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update dialog session")
	}
	return session, nil
}

func (d *DB) DeactivateDialogSessions(ctx context.Context, deactivate *store.DeactivateDialogSessions) error {
	if _, err := d.db.ExecContext(ctx,
		"UPDATE dialog_session SET is_active = FALSE, updated_ts = $1 WHERE user_id = $2 AND chat_id = $3 AND is_active",
		time.Now().Unix(), deactivate.UserID, deactivate.ChatID,
	); err != nil {
		return errors.Wrap(err, "failed to deactivate dialog sessions")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDialogSession(row rowScanner) (*store.DialogSession, error) {
	var session store.DialogSession
	var data string
	if err := row.Scan(
		&session.ID,
		&session.UID,
		&session.UserID,
		&session.ChatID,
		&session.Mode,
		&session.Step,
		&data,
		&session.IsActive,
		&session.CreatedTs,
		&session.UpdatedTs,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &session.Data); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal dialog data")
	}
	return &session, nil
}
