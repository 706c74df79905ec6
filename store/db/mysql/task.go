package mysql

import (
	"context"
	"fmt"
	"strings"

	"github.com/usetaskchat/taskchat/store"
)

func (d *DB) CreateTask(ctx context.Context, create *store.Task) (*store.Task, error) {
	stmt := "INSERT INTO `tasks` (`creator_id`, `title`, `description`) VALUES (?, ?, ?)"
	result, err := d.db.ExecContext(ctx, stmt, create.CreatorID, create.Title, create.Description)
	if err != nil {
		return nil, err
	}
	rawID, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	id := int32(rawID)
	// Fetch it back to populate timestamps.
	return d.getTask(ctx, id, create.CreatorID)
}

func (d *DB) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	where, args := []string{"`creator_id` = ?"}, []any{find.CreatorID}
	if v := find.ID; v != nil {
		where, args = append(where, "`id` = ?"), append(args, *v)
	}
	if v := find.Completed; v != nil {
		where, args = append(where, "`completed` = ?"), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, creator_id, title, description, completed, UNIX_TIMESTAMP(created_ts), UNIX_TIMESTAMP(updated_ts)
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
		set, args = append(set, "`title` = ?"), append(args, *v)
	}
	if v := update.Description; v != nil {
		set, args = append(set, "`description` = ?"), append(args, *v)
	}
	if v := update.Completed; v != nil {
		set, args = append(set, "`completed` = ?"), append(args, *v)
	}
	if len(set) == 0 {
		return d.getTask(ctx, update.ID, update.CreatorID)
	}
	set = append(set, "`updated_ts` = CURRENT_TIMESTAMP")
	args = append(args, update.ID, update.CreatorID)
	stmt := fmt.Sprintf("UPDATE `tasks` SET %s WHERE `id` = ? AND `creator_id` = ?", strings.Join(set, ", "))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, err
	}
	return d.getTask(ctx, update.ID, update.CreatorID)
}

func (d *DB) DeleteTask(ctx context.Context, delete *store.DeleteTask) error {
	_, err := d.db.ExecContext(ctx, "DELETE FROM `tasks` WHERE `id` = ? AND `creator_id` = ?", delete.ID, delete.CreatorID)
	return err
}

func (d *DB) getTask(ctx context.Context, id int32, creatorID string) (*store.Task, error) {
	list, err := d.ListTasks(ctx, &store.FindTask{ID: &id, CreatorID: creatorID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("task %d not found after write", id)
	}
	return list[0], nil
}
