package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

const swapRequestColumns = `
	id,
	requester_name,
	target_name,
	original_date,
	original_shift,
	target_date,
	target_shift,
	status,
	responded_by,
	responded_at,
	admin_approved_by,
	admin_approved_at,
	created_at,
	version
`

func (r *Repository) swapRequestDst(swap *domain.SwapRequest) []any {
	return []any{
		&swap.ID,
		&swap.RequesterName,
		&swap.TargetName,
		&swap.OriginalDate,
		&swap.OriginalShift,
		&swap.TargetDate,
		&swap.TargetShift,
		&swap.Status,
		&swap.RespondedBy,
		&swap.RespondedAt,
		&swap.AdminApprovedBy,
		&swap.AdminApprovedAt,
		&swap.CreatedAt,
		&swap.Version,
	}
}

func normalizeSwapRequest(swap *domain.SwapRequest) {
	swap.OriginalDate = utils.DateOnly(swap.OriginalDate)
	swap.TargetDate = utils.DateOnly(swap.TargetDate)
	swap.OriginalLabel = utils.FormatDate(swap.OriginalDate)
	swap.TargetLabel = utils.FormatDate(swap.TargetDate)
}

func (r *Repository) CreateSwapRequest(swap *domain.SwapRequest) error {
	query := `
		INSERT INTO swap_requests (requester_name, target_name, original_date, original_shift, target_date, target_shift, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{swap.RequesterName, swap.TargetName, swap.OriginalDate, swap.OriginalShift, swap.TargetDate, swap.TargetShift, swap.Status}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&swap.ID, &swap.CreatedAt, &swap.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetSwapRequestByID(id int64) (*domain.SwapRequest, error) {
	query := `
		SELECT ` + swapRequestColumns + `
		FROM swap_requests WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	swap := &domain.SwapRequest{}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(r.swapRequestDst(swap)...); err != nil {
		return nil, err
	}
	normalizeSwapRequest(swap)

	return swap, nil
}

// 换班申请作为历史记录保留，不会被删除，这里按创建时间倒序返回
func (r *Repository) GetAllSwapRequests() ([]*domain.SwapRequest, error) {
	query := `
		SELECT ` + swapRequestColumns + `
		FROM swap_requests ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	swaps := make([]*domain.SwapRequest, 0)
	for rows.Next() {
		swap := &domain.SwapRequest{}
		if err := rows.Scan(r.swapRequestDst(swap)...); err != nil {
			return nil, err
		}
		normalizeSwapRequest(swap)
		swaps = append(swaps, swap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return swaps, nil
}

// 获取某个前台相关的换班申请（作为申请人或对方）
func (r *Repository) GetSwapRequestsByOperator(displayName string) ([]*domain.SwapRequest, error) {
	query := `
		SELECT ` + swapRequestColumns + `
		FROM swap_requests
		WHERE LOWER(requester_name) = LOWER($1) OR LOWER(target_name) = LOWER($1)
		ORDER BY created_at DESC
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, displayName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	swaps := make([]*domain.SwapRequest, 0)
	for rows.Next() {
		swap := &domain.SwapRequest{}
		if err := rows.Scan(r.swapRequestDst(swap)...); err != nil {
			return nil, err
		}
		normalizeSwapRequest(swap)
		swaps = append(swaps, swap)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return swaps, nil
}

func (r *Repository) UpdateSwapRequest(swap *domain.SwapRequest) error {
	query := `
		UPDATE swap_requests
		SET
			status = $1,
			responded_by = $2,
			responded_at = $3,
			admin_approved_by = $4,
			admin_approved_at = $5,
			version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{swap.Status, swap.RespondedBy, swap.RespondedAt, swap.AdminApprovedBy, swap.AdminApprovedAt, swap.ID, swap.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&swap.Version); err != nil {
		return err
	}

	return nil
}
