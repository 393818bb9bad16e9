package repository

import (
	"context"
	"fmt"
)

// ActivityRepo appends to the activity_log table.
type ActivityRepo struct{ DB DBTX }

func NewActivityRepo(db DBTX) *ActivityRepo { return &ActivityRepo{DB: db} }

// Append inserts one entry and returns the id the database assigned to it.
func (r *ActivityRepo) Append(ctx context.Context, userID uint64, action, ip string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO activity_log (user_id, action, ip_address) VALUES (?,?,?)",
		userID, action, ip)
	if err != nil {
		return 0, fmt.Errorf("insert activity: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("activity id: %w", err)
	}
	return uint64(id), nil
}
