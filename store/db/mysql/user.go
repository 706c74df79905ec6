package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/usetaskchat/taskchat/store"
)

func (d *DB) CreateUser(ctx context.Context, create *store.User) (*store.User, error) {
	stmt := "INSERT INTO `users` (`id`, `email`, `nickname`, `password_hash`) VALUES (?, ?, ?, ?)"
	if _, err := d.db.ExecContext(ctx, stmt, create.ID, create.Email, create.Nickname, create.PasswordHash); err != nil {
		return nil, err
	}
	// Fetch it back to populate timestamps.
	list, err := d.ListUsers(ctx, &store.FindUser{ID: &create.ID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("user %s not found after insert", create.ID)
	}
	return list[0], nil
}

func (d *DB) ListUsers(ctx context.Context, find *store.FindUser) ([]*store.User, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "`id` = ?"), append(args, *v)
	}
	if v := find.Email; v != nil {
		where, args = append(where, "`email` = ?"), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, email, nickname, password_hash, UNIX_TIMESTAMP(created_ts), UNIX_TIMESTAMP(updated_ts)
		 FROM users WHERE %s ORDER BY created_ts DESC`,
		strings.Join(where, " AND "),
	)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.User
	for rows.Next() {
		u := &store.User{}
		if err := rows.Scan(&u.ID, &u.Email, &u.Nickname, &u.PasswordHash, &u.CreatedTs, &u.UpdatedTs); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

func (d *DB) DeleteUser(ctx context.Context, delete *store.DeleteUser) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM `messages` WHERE `creator_id` = ?",
		"DELETE FROM `conversations` WHERE `creator_id` = ?",
		"DELETE FROM `tasks` WHERE `creator_id` = ?",
		"DELETE FROM `users` WHERE `id` = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, delete.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
