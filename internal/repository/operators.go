package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

func (r *Repository) GetOperatorByID(id int64) (*domain.Operator, error) {
	query := `
		SELECT username, password_hash, display_name, email, role, is_active, hidden_from_schedule, created_at, version
		FROM operators WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	op := &domain.Operator{
		ID: id,
	}

	dst := []any{&op.Username, &op.PasswordHash, &op.DisplayName, &op.Email, &op.Role, &op.IsActive, &op.HiddenFromSchedule, &op.CreatedAt, &op.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return op, nil
}

func (r *Repository) GetOperatorByUsername(username string) (*domain.Operator, error) {
	query := `
		SELECT id, password_hash, display_name, email, role, is_active, hidden_from_schedule, created_at, version
		FROM operators WHERE username = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	op := &domain.Operator{
		Username: username,
	}

	dst := []any{&op.ID, &op.PasswordHash, &op.DisplayName, &op.Email, &op.Role, &op.IsActive, &op.HiddenFromSchedule, &op.CreatedAt, &op.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, err
	}

	return op, nil
}

// 班表条目中的名字不区分大小写，因此这里也按小写匹配
func (r *Repository) GetOperatorByDisplayName(displayName string) (*domain.Operator, error) {
	query := `
		SELECT id, username, password_hash, display_name, email, role, is_active, hidden_from_schedule, created_at, version
		FROM operators WHERE LOWER(display_name) = LOWER($1)
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	op := &domain.Operator{}

	dst := []any{&op.ID, &op.Username, &op.PasswordHash, &op.DisplayName, &op.Email, &op.Role, &op.IsActive, &op.HiddenFromSchedule, &op.CreatedAt, &op.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, displayName).Scan(dst...); err != nil {
		return nil, err
	}

	return op, nil
}

func (r *Repository) UpdateOperator(op *domain.Operator) error {
	query := `
		UPDATE operators
		SET
		    password_hash = $1,
			email = $2,
			role = $3,
			is_active = $4,
			hidden_from_schedule = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING username, display_name, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{op.PasswordHash, op.Email, op.Role, op.IsActive, op.HiddenFromSchedule, op.ID, op.Version}
	dst := []any{&op.Username, &op.DisplayName, &op.CreatedAt, &op.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllOperators() ([]*domain.Operator, error) {
	query := `
		SELECT id, username, password_hash, display_name, email, role, is_active, hidden_from_schedule, created_at, version FROM operators
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	operators := make([]*domain.Operator, 0)
	for rows.Next() {
		op := &domain.Operator{}
		dst := []any{&op.ID, &op.Username, &op.PasswordHash, &op.DisplayName, &op.Email, &op.Role, &op.IsActive, &op.HiddenFromSchedule, &op.CreatedAt, &op.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		operators = append(operators, op)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return operators, nil
}

func (r *Repository) GetActiveOperators() ([]*domain.Operator, error) {
	query := `
		SELECT id, username, password_hash, display_name, email, role, is_active, hidden_from_schedule, created_at, version
		FROM operators WHERE is_active = true
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	operators := make([]*domain.Operator, 0)
	for rows.Next() {
		op := &domain.Operator{}
		dst := []any{&op.ID, &op.Username, &op.PasswordHash, &op.DisplayName, &op.Email, &op.Role, &op.IsActive, &op.HiddenFromSchedule, &op.CreatedAt, &op.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		operators = append(operators, op)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return operators, nil
}

func (r *Repository) DeleteOperator(id int64) error {
	query := `
		DELETE FROM operators WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}

func (r *Repository) CreateOperator(op *domain.Operator) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO operators (username, password_hash, display_name, email, role, hidden_from_schedule)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_active, created_at, version
	`

	args := []any{op.Username, op.PasswordHash, op.DisplayName, op.Email, op.Role, op.HiddenFromSchedule}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&op.ID, &op.IsActive, &op.CreatedAt, &op.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) CheckEmailIfExists(email string) (bool, error) {
	isExists := false

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT EXISTS (SELECT 1 FROM operators WHERE email = $1)
	`
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(&isExists); err != nil {
		return false, err
	}

	return isExists, nil
}
