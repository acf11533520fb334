package domain

import "time"

type SwapStatus string

const (
	SwapStatusPending  SwapStatus = "pending"
	SwapStatusAccepted SwapStatus = "accepted"
	SwapStatusRejected SwapStatus = "rejected"
	SwapStatusApproved SwapStatus = "approved"
)

// 两个前台之间的换班申请，需要对方接受后再由管理员审批
// 申请永远不会被删除，作为历史记录保留
type SwapRequest struct {
	ID              int64      `json:"id"`
	RequesterName   string     `json:"requesterName"`
	TargetName      string     `json:"targetName"`
	OriginalDate    time.Time  `json:"-"`
	OriginalLabel   string     `json:"originalDate"` // DD/MM/YYYY
	OriginalShift   ShiftSlot  `json:"originalShift"`
	TargetDate      time.Time  `json:"-"`
	TargetLabel     string     `json:"targetDate"` // DD/MM/YYYY
	TargetShift     ShiftSlot  `json:"targetShift"`
	Status          SwapStatus `json:"status"`
	RespondedBy     *string    `json:"respondedBy,omitempty"`
	RespondedAt     *time.Time `json:"respondedAt,omitempty"`
	AdminApprovedBy *string    `json:"adminApprovedBy,omitempty"`
	AdminApprovedAt *time.Time `json:"adminApprovedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	Version         int32      `json:"-"`
}

func (s *SwapRequest) IsTerminal() bool {
	return s.Status == SwapStatusApproved || s.Status == SwapStatusRejected
}
