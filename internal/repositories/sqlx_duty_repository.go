package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	apperrors "duty-tracker.com/duty-tracker/internal/errors"
	model "duty-tracker.com/duty-tracker/pkg/models"
)

// SqlxDutyRepository talks to postgres ("postgres"), mysql ("mysql") or
// sqlite ("sqlite3") through hand-built statements. The driver name of db
// selects placeholder style and identifier quoting.
type SqlxDutyRepository struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
	columns []string
}

var _ DutyRepository = (*SqlxDutyRepository)(nil)

func NewSqlxDutyRepository(db *sqlx.DB) *SqlxDutyRepository {
	builder := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	createdAt := `"createdAt"`

	switch db.DriverName() {
	case "postgres":
		builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	case "mysql":
		createdAt = "`createdAt`"
	}

	return &SqlxDutyRepository{
		db:      db,
		builder: builder,
		columns: []string{"id", "name", createdAt},
	}
}

func (r *SqlxDutyRepository) List(ctx context.Context) ([]model.Duty, error) {
	query, args, err := r.builder.
		Select(r.columns...).
		From("duties").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql: %w", err)
	}

	duties := make([]model.Duty, 0)
	if err := r.db.SelectContext(ctx, &duties, query, args...); err != nil {
		return nil, fmt.Errorf("select: %w", err)
	}

	return duties, nil
}

func (r *SqlxDutyRepository) Create(ctx context.Context, name string) (*model.Duty, error) {
	ib := r.builder.
		Insert("duties").
		Columns("name").
		Values(name)

	var id int64
	if r.db.DriverName() == "postgres" {
		query, args, err := ib.Suffix("RETURNING id").ToSql()
		if err != nil {
			return nil, fmt.Errorf("to sql: %w", err)
		}
		if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
			return nil, fmt.Errorf("insert: %w", err)
		}
	} else {
		query, args, err := ib.ToSql()
		if err != nil {
			return nil, fmt.Errorf("to sql: %w", err)
		}
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("insert: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("last insert id: %w", err)
		}
	}

	return r.get(ctx, id)
}

func (r *SqlxDutyRepository) Update(ctx context.Context, id int64, name string) (*model.Duty, error) {
	query, args, err := r.builder.
		Update("duties").
		Set("name", name).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	if err := ensureAffected(res); err != nil {
		return nil, err
	}

	return r.get(ctx, id)
}

func (r *SqlxDutyRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := r.builder.
		Delete("duties").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("to sql: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return ensureAffected(res)
}

func (r *SqlxDutyRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SqlxDutyRepository) get(ctx context.Context, id int64) (*model.Duty, error) {
	query, args, err := r.builder.
		Select(r.columns...).
		From("duties").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("to sql: %w", err)
	}

	var d model.Duty
	if err := r.db.GetContext(ctx, &d, query, args...); errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrDutyNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get: %w", err)
	}

	return &d, nil
}

func ensureAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperrors.ErrDutyNotFound
	}
	return nil
}
