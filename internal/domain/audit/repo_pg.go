package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebook/carebook/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type logRepoPG struct{ pool *pgxpool.Pool }

func NewLogRepoPG(pool *pgxpool.Pool) LogRepository {
	return &logRepoPG{pool: pool}
}

func (r *logRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const logCols = `id, table_name, entity_id, action, old_value, new_value, actor, created_at`

func (r *logRepoPG) Insert(ctx context.Context, entry *AuditLog) error {
	entry.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO audit_log (id, table_name, entity_id, action, old_value, new_value, actor)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		entry.ID, entry.TableName, entry.EntityID, entry.Action, entry.OldValue, entry.NewValue, entry.Actor,
	).Scan(&entry.CreatedAt)
}

func (r *logRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*AuditLog, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1

	for _, col := range []string{"table_name", "entity_id", "action", "actor"} {
		if v, ok := params[col]; ok && v != "" {
			where += fmt.Sprintf(" AND %s = $%d", col, idx)
			args = append(args, v)
			idx++
		}
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM audit_log`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + logCols + ` FROM audit_log` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*AuditLog
	for rows.Next() {
		var e AuditLog
		if err := rows.Scan(&e.ID, &e.TableName, &e.EntityID, &e.Action, &e.OldValue, &e.NewValue,
			&e.Actor, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, &e)
	}
	return result, total, rows.Err()
}
