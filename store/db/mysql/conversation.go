package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/usetaskchat/taskchat/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	stmt := "INSERT INTO `conversations` (`creator_id`) VALUES (?)"
	result, err := d.db.ExecContext(ctx, stmt, create.CreatorID)
	if err != nil {
		return nil, err
	}
	rawID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	id := int32(rawID)
	list, err := d.ListConversations(ctx, &store.FindConversation{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("conversation %d not found after insert", id)
	}
	return list[0], nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "`id` = ?"), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "`creator_id` = ?"), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, creator_id, UNIX_TIMESTAMP(created_ts), UNIX_TIMESTAMP(updated_ts)
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
	_, err := d.db.ExecContext(ctx, "DELETE FROM `conversations` WHERE `id` = ?", delete.ID)
	return err
}

func (d *DB) CreateMessage(ctx context.Context, create *store.Message) (*store.Message, error) {
	stmt := "INSERT INTO `messages` (`conversation_id`, `creator_id`, `role`, `content`) VALUES (?, ?, ?, ?)"
	result, err := d.db.ExecContext(ctx, stmt, create.ConversationID, create.CreatorID, create.Role, create.Content)
	if err != nil {
		return nil, err
	}
	rawID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	create.ID = int32(rawID)
	// Fetch created_ts.
	_ = d.db.QueryRowContext(ctx, "SELECT UNIX_TIMESTAMP(created_ts) FROM messages WHERE id = ?", create.ID).Scan(&create.CreatedTs)

	if _, err := d.db.ExecContext(ctx,
		"UPDATE `conversations` SET `updated_ts` = CURRENT_TIMESTAMP WHERE `id` = ?",
		create.ConversationID,
	); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListMessages(ctx context.Context, find *store.FindMessage) ([]*store.Message, error) {
	where, args := []string{"`conversation_id` = ?"}, []any{find.ConversationID}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "`creator_id` = ?"), append(args, *v)
	}
	order := "ORDER BY created_ts ASC, id ASC"
	limit := ""
	if v := find.Limit; v != nil {
		order = "ORDER BY created_ts DESC, id DESC"
		limit = fmt.Sprintf(" LIMIT %d", *v)
	}
	query := fmt.Sprintf(
		`SELECT id, conversation_id, creator_id, role, content, UNIX_TIMESTAMP(created_ts)
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
