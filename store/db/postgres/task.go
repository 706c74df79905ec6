package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/usetaskchat/taskchat/store"
)

func (d *DB) CreateTask(ctx context.Context, create *store.Task) (*store.Task, error) {
	stmt := `INSERT INTO tasks (creator_id, title, description)
	         VALUES ($1, $2, $3)
	         RETURNING id, completed, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt, create.CreatorID, create.Title, create.Description).
		Scan(&create.ID, &create.Completed, &create.CreatedTs, &create.UpdatedTs); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	where, args := []string{"creator_id = $1"}, []any{find.CreatorID}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Completed; v != nil {
		where, args = append(where, "completed = "+placeholder(len(args)+1)), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, creator_id, title, description, completed, created_ts, updated_ts
		 FROM tasks WHERE %s ORDER BY created_ts DESC, id DESC`,
		strings.Join(where, " AND "),
	)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Task
	for rows.Next() {
		t := &store.Task{}
		if err := rows.Scan(&t.ID, &t.CreatorID, &t.Title, &t.Description, &t.Completed, &t.CreatedTs, &t.UpdatedTs); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (d *DB) UpdateTask(ctx context.Context, update *store.UpdateTask) (*store.Task, error) {
	set, args := []string{}, []any{}
	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Description; v != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Completed; v != nil {
		set, args = append(set, "completed = "+placeholder(len(args)+1)), append(args, *v)
	}
	set = append(set, "updated_ts = EXTRACT(EPOCH FROM NOW())")
	args = append(args, update.ID, update.CreatorID)
	stmt := fmt.Sprintf(
		`UPDATE tasks SET %s WHERE id = %s AND creator_id = %s
		 RETURNING id, creator_id, title, description, completed, created_ts, updated_ts`,
		strings.Join(set, ", "), placeholder(len(args)-1), placeholder(len(args)),
	)
	t := &store.Task{}
	if err := d.db.QueryRowContext(ctx, stmt, args...).
		Scan(&t.ID, &t.CreatorID, &t.Title, &t.Description, &t.Completed, &t.CreatedTs, &t.UpdatedTs); err != nil {
		return nil, err
	}
	return t, nil
}

func (d *DB) DeleteTask(ctx context.Context, delete *store.DeleteTask) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND creator_id = $2`, delete.ID, delete.CreatorID)
	return err
}
