package sqlite

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
		"UPDATE dialog_session SET is_active = 0, updated_ts = ? WHERE user_id = ? AND chat_id = ? AND is_active = 1",
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
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
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
		WHERE user_id = ? AND chat_id = ? AND is_active = 1
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
		set, args = append(set, "mode = ?"), append(args, string(*update.Mode))
	}
	if update.Step != nil {
		set, args = append(set, "step = ?"), append(args, *update.Step)
	}
	if update.Data != nil {
		data, err := json.Marshal(update.Data)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal dialog data")
		}
		set, args = append(set, "data = ?"), append(args, string(data))
	}
	if update.IsActive != nil {
		set, args = append(set, "is_active = ?"), append(args, *update.IsActive)
	}

	set, args = append(set, "updated_ts = ?"), append(args, time.Now().Unix())
	args = append(args, update.ID)

	row := d.db.QueryRowContext(ctx, `
		UPDATE dialog_session SET `+strings.Join(set, ", ")+`
		WHERE id = ?
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
		"UPDATE dialog_session SET is_active = 0, updated_ts = ? WHERE user_id = ? AND chat_id = ? AND is_active = 1",
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
