package repository

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

func scanMonthSchedules(rows *sql.Rows) ([]*domain.MonthSchedule, error) {
	schedulesMap := make(map[int64]*domain.MonthSchedule)
	order := []int64{}

	for rows.Next() {
		var row struct {
			ID         int64
			Month      int
			Year       int
			ImportedBy string
			ImportedAt time.Time
			IsActive   bool
			Archived   bool
			ArchivedBy sql.NullString
			ArchivedAt sql.NullTime
			Version    int32

			EntryDate       sql.NullTime
			HalfDayOperator sql.NullString
			ClosingOperator sql.NullString
		}

		dst := []any{
			&row.ID,
			&row.Month,
			&row.Year,
			&row.ImportedBy,
			&row.ImportedAt,
			&row.IsActive,
			&row.Archived,
			&row.ArchivedBy,
			&row.ArchivedAt,
			&row.Version,
			&row.EntryDate,
			&row.HalfDayOperator,
			&row.ClosingOperator,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		schedule, exists := schedulesMap[row.ID]
		if !exists {
			schedule = &domain.MonthSchedule{
				ID:         row.ID,
				Month:      row.Month,
				Year:       row.Year,
				Entries:    []domain.ScheduleEntry{},
				ImportedBy: row.ImportedBy,
				ImportedAt: row.ImportedAt,
				IsActive:   row.IsActive,
				Archived:   row.Archived,
				Version:    row.Version,
			}
			if row.ArchivedBy.Valid {
				schedule.ArchivedBy = &row.ArchivedBy.String
			}
			if row.ArchivedAt.Valid {
				schedule.ArchivedAt = &row.ArchivedAt.Time
			}
			schedulesMap[row.ID] = schedule
			order = append(order, row.ID)
		}

		if !row.EntryDate.Valid {
			// 该月班表没有任何条目，导入流程不会产生这种数据，但还是要兼容
			continue
		}

		day := utils.DateOnly(row.EntryDate.Time)
		schedule.Entries = append(schedule.Entries, domain.ScheduleEntry{
			Date:            day,
			DateLabel:       utils.FormatDate(day),
			DayOfWeek:       utils.WeekdayLabel(day),
			HalfDayOperator: row.HalfDayOperator.String,
			ClosingOperator: row.ClosingOperator.String,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	schedules := make([]*domain.MonthSchedule, 0, len(order))
	for _, id := range order {
		schedule := schedulesMap[id]
		sort.Slice(schedule.Entries, func(i, j int) bool {
			return schedule.Entries[i].Date.Before(schedule.Entries[j].Date)
		})
		schedules = append(schedules, schedule)
	}

	return schedules, nil
}

const monthScheduleColumns = `
	ms.id,
	ms.month,
	ms.year,
	ms.imported_by,
	ms.imported_at,
	ms.is_active,
	ms.archived,
	ms.archived_by,
	ms.archived_at,
	ms.version,
	se.entry_date,
	se.half_day_operator,
	se.closing_operator
`

// 获取某个月份的当前（未归档）班表
func (r *Repository) GetMonthSchedule(month int, year int) (*domain.MonthSchedule, error) {
	query := `
		SELECT ` + monthScheduleColumns + `
		FROM month_schedules ms
		LEFT JOIN schedule_entries se ON ms.id = se.schedule_id
		WHERE ms.month = $1 AND ms.year = $2 AND ms.archived = false
		ORDER BY se.entry_date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules, err := scanMonthSchedules(rows)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return nil, sql.ErrNoRows
	}

	return schedules[0], nil
}

func (r *Repository) GetCurrentSchedules() ([]*domain.MonthSchedule, error) {
	query := `
		SELECT ` + monthScheduleColumns + `
		FROM month_schedules ms
		LEFT JOIN schedule_entries se ON ms.id = se.schedule_id
		WHERE ms.archived = false
		ORDER BY ms.year, ms.month, se.entry_date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMonthSchedules(rows)
}

func (r *Repository) GetArchivedSchedules() ([]*domain.MonthSchedule, error) {
	query := `
		SELECT ` + monthScheduleColumns + `
		FROM month_schedules ms
		LEFT JOIN schedule_entries se ON ms.id = se.schedule_id
		WHERE ms.archived = true
		ORDER BY ms.year, ms.month, se.entry_date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMonthSchedules(rows)
}

func insertScheduleEntries(ctx context.Context, tx *sql.Tx, schedule *domain.MonthSchedule) error {
	query := `
		INSERT INTO schedule_entries (schedule_id, entry_date, half_day_operator, closing_operator)
		VALUES ($1, $2, $3, $4)
	`

	for _, entry := range schedule.Entries {
		if _, err := tx.ExecContext(ctx, query, schedule.ID, entry.Date, entry.HalfDayOperator, entry.ClosingOperator); err != nil {
			return err
		}
	}

	return nil
}

// 创建某个月份的班表。replace 为 true 时先删除该月已有的当前班表，
// 这是一个破坏性操作，调用方必须先让用户显式确认。
func (r *Repository) CreateMonthSchedule(schedule *domain.MonthSchedule, replace bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if replace {
		query := `DELETE FROM month_schedules WHERE month = $1 AND year = $2 AND archived = false`
		if _, err := tx.ExecContext(ctx, query, schedule.Month, schedule.Year); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO month_schedules (month, year, imported_by)
		VALUES ($1, $2, $3)
		RETURNING id, imported_at, is_active, archived, version
	`

	dst := []any{&schedule.ID, &schedule.ImportedAt, &schedule.IsActive, &schedule.Archived, &schedule.Version}
	if err := tx.QueryRowContext(ctx, query, schedule.Month, schedule.Year, schedule.ImportedBy).Scan(dst...); err != nil {
		return err
	}

	if err := insertScheduleEntries(ctx, tx, schedule); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func bumpScheduleVersion(ctx context.Context, tx *sql.Tx, schedule *domain.MonthSchedule) error {
	// 乐观并发控制：version 不匹配说明班表已被其他流程修改，
	// 此时返回 sql.ErrNoRows，由调用方提示用户重试
	query := `
		UPDATE month_schedules
		SET version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`

	return tx.QueryRowContext(ctx, query, schedule.ID, schedule.Version).Scan(&schedule.Version)
}

func replaceScheduleEntries(ctx context.Context, tx *sql.Tx, schedule *domain.MonthSchedule) error {
	if err := bumpScheduleVersion(ctx, tx, schedule); err != nil {
		return err
	}

	query := `DELETE FROM schedule_entries WHERE schedule_id = $1`
	if _, err := tx.ExecContext(ctx, query, schedule.ID); err != nil {
		return err
	}

	return insertScheduleEntries(ctx, tx, schedule)
}

// 将整个月的条目作为一个逻辑单元整体写回
func (r *Repository) UpdateScheduleEntries(schedule *domain.MonthSchedule) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := replaceScheduleEntries(ctx, tx, schedule); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// 审批通过换班：两个月份的班表和申请本身在同一个事务中写入，
// 其中任何一个版本不匹配都会让整个事务回滚
func (r *Repository) ApplyApprovedSwap(swap *domain.SwapRequest, originalSchedule *domain.MonthSchedule, targetSchedule *domain.MonthSchedule) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := replaceScheduleEntries(ctx, tx, originalSchedule); err != nil {
		return err
	}
	if targetSchedule.ID != originalSchedule.ID {
		if err := replaceScheduleEntries(ctx, tx, targetSchedule); err != nil {
			return err
		}
	}

	query := `
		UPDATE swap_requests
		SET status = $1, admin_approved_by = $2, admin_approved_at = $3, version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	args := []any{swap.Status, swap.AdminApprovedBy, swap.AdminApprovedAt, swap.ID, swap.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&swap.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

// 手动归档某个月份的当前班表
func (r *Repository) ArchiveMonthSchedule(month int, year int, by string) error {
	query := `
		UPDATE month_schedules
		SET archived = true, archived_by = $1, archived_at = NOW(), version = version + 1
		WHERE month = $2 AND year = $3 AND archived = false
		RETURNING id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var id int64
	if err := r.dbpool.QueryRowContext(ctx, query, by, month, year).Scan(&id); err != nil {
		return err
	}

	return nil
}

// 将最近一次归档的班表恢复为当前班表。
// 该月已经存在当前班表时，部分唯一索引会报冲突
func (r *Repository) RestoreMonthSchedule(month int, year int) error {
	query := `
		UPDATE month_schedules
		SET archived = false, archived_by = NULL, archived_at = NULL, version = version + 1
		WHERE id = (
			SELECT id FROM month_schedules
			WHERE month = $1 AND year = $2 AND archived = true
			ORDER BY archived_at DESC
			LIMIT 1
		)
		RETURNING id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var id int64
	if err := r.dbpool.QueryRowContext(ctx, query, month, year).Scan(&id); err != nil {
		return err
	}

	return nil
}

// 切换 isActive：停用的班表仍然属于当前集合、可以编辑，只是默认视图中不展示
func (r *Repository) ToggleMonthScheduleActivation(month int, year int) (bool, error) {
	query := `
		UPDATE month_schedules
		SET is_active = NOT is_active, version = version + 1
		WHERE month = $1 AND year = $2 AND archived = false
		RETURNING is_active
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var isActive bool
	if err := r.dbpool.QueryRowContext(ctx, query, month, year).Scan(&isActive); err != nil {
		return false, err
	}

	return isActive, nil
}
