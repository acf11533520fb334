package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

const vacationRequestColumns = `
	id,
	operator_name,
	start_date,
	end_date,
	total_days,
	reason,
	status,
	requested_at,
	approved_by,
	approved_at,
	rejection_reason,
	month,
	year,
	version
`

func (r *Repository) vacationRequestDst(req *domain.VacationRequest) []any {
	return []any{
		&req.ID,
		&req.OperatorName,
		&req.StartDate,
		&req.EndDate,
		&req.TotalDays,
		&req.Reason,
		&req.Status,
		&req.RequestedAt,
		&req.ApprovedBy,
		&req.ApprovedAt,
		&req.RejectionReason,
		&req.Month,
		&req.Year,
		&req.Version,
	}
}

func normalizeVacationRequest(req *domain.VacationRequest) {
	req.StartDate = utils.DateOnly(req.StartDate)
	req.EndDate = utils.DateOnly(req.EndDate)
	req.StartLabel = utils.FormatDate(req.StartDate)
	req.EndLabel = utils.FormatDate(req.EndDate)
}

func (r *Repository) CreateVacationRequest(req *domain.VacationRequest) error {
	query := `
		INSERT INTO vacation_requests (operator_name, start_date, end_date, total_days, reason, status, month, year)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, requested_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{req.OperatorName, req.StartDate, req.EndDate, req.TotalDays, req.Reason, req.Status, req.Month, req.Year}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&req.ID, &req.RequestedAt, &req.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetVacationRequestByID(id int64) (*domain.VacationRequest, error) {
	query := `
		SELECT ` + vacationRequestColumns + `
		FROM vacation_requests WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	req := &domain.VacationRequest{}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(r.vacationRequestDst(req)...); err != nil {
		return nil, err
	}
	normalizeVacationRequest(req)

	return req, nil
}

func (r *Repository) GetAllVacationRequests() ([]*domain.VacationRequest, error) {
	query := `
		SELECT ` + vacationRequestColumns + `
		FROM vacation_requests ORDER BY requested_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := make([]*domain.VacationRequest, 0)
	for rows.Next() {
		req := &domain.VacationRequest{}
		if err := rows.Scan(r.vacationRequestDst(req)...); err != nil {
			return nil, err
		}
		normalizeVacationRequest(req)
		reqs = append(reqs, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reqs, nil
}

func (r *Repository) GetVacationRequestsByOperator(displayName string) ([]*domain.VacationRequest, error) {
	query := `
		SELECT ` + vacationRequestColumns + `
		FROM vacation_requests
		WHERE LOWER(operator_name) = LOWER($1)
		ORDER BY requested_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, displayName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := make([]*domain.VacationRequest, 0)
	for rows.Next() {
		req := &domain.VacationRequest{}
		if err := rows.Scan(r.vacationRequestDst(req)...); err != nil {
			return nil, err
		}
		normalizeVacationRequest(req)
		reqs = append(reqs, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reqs, nil
}

// 获取所有已批准的休假，用于重叠检测
func (r *Repository) GetApprovedVacations() ([]*domain.VacationRequest, error) {
	query := `
		SELECT ` + vacationRequestColumns + `
		FROM vacation_requests WHERE status = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, domain.VacationStatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := make([]*domain.VacationRequest, 0)
	for rows.Next() {
		req := &domain.VacationRequest{}
		if err := rows.Scan(r.vacationRequestDst(req)...); err != nil {
			return nil, err
		}
		normalizeVacationRequest(req)
		reqs = append(reqs, req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reqs, nil
}

func (r *Repository) UpdateVacationRequest(req *domain.VacationRequest) error {
	query := `
		UPDATE vacation_requests
		SET
			status = $1,
			approved_by = $2,
			approved_at = $3,
			rejection_reason = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{req.Status, req.ApprovedBy, req.ApprovedAt, req.RejectionReason, req.ID, req.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&req.Version); err != nil {
		return err
	}

	return nil
}
