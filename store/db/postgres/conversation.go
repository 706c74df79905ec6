package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/usetaskchat/taskchat/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	stmt := `INSERT INTO conversations (creator_id)
	         VALUES ($1)
	         RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt, create.CreatorID).
		Scan(&create.ID, &create.CreatedTs, &create.UpdatedTs); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, creator_id, created_ts, updated_ts
		 FROM conversations WHERE %s ORDER BY updated_ts DESC, id DESC`,
		strings.Join(where, " AND "),
	)
	if v := find.Limit; v != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *v)
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Conversation
	for rows.Next() {
		c := &store.Conversation{}
		if err := rows.Scan(&c.ID, &c.CreatorID, &c.CreatedTs, &c.UpdatedTs); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (d *DB) DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error {
	// Messages cascade via foreign key.
	_, err := d.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, delete.ID)
	return err
}

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	stmt := `INSERT INTO messages (conversation_id, creator_id, role, content)
	         VALUES ($1, $2, $3, $4)
	         RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.ConversationID, create.CreatorID, create.Role, create.Content,
	).Scan(&create.ID, &create.CreatedTs); err != nil {
		return nil, err
	}
	if _, err := d.db.ExecContext(ctx,
		`UPDATE conversations SET updated_ts = EXTRACT(EPOCH FROM NOW()) WHERE id = $1`,
		create.ConversationID,
	); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"conversation_id = $1"}, []any{find.ConversationID}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	order := "ORDER BY created_ts ASC, id ASC"
	limit := ""
	if v := find.Limit; v != nil {
		order = "ORDER BY created_ts DESC, id DESC"
		limit = fmt.Sprintf(" LIMIT %d", *v)
	}
	query := fmt.Sprintf(
		`SELECT id, conversation_id, creator_id, role, content, created_ts
		 FROM messages WHERE %s %s%s`,
		strings.Join(where, " AND "), order, limit,
	)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Message
	for rows.Next() {
		m := &store.Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.CreatorID, &m.Role, &m.Content, &m.CreatedTs); err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
