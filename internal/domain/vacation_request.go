package domain

import "time"

type VacationStatus string

const (
	VacationStatusPending  VacationStatus = "pending"
	VacationStatusApproved VacationStatus = "approved"
	VacationStatusRejected VacationStatus = "rejected"
)

// 休假申请，审批通过后会自动为休假期间的班次安排顶班
type VacationRequest struct {
	ID              int64          `json:"id"`
	OperatorName    string         `json:"operatorName"`
	StartDate       time.Time      `json:"-"`
	StartLabel      string         `json:"startDate"` // DD/MM/YYYY
	EndDate         time.Time      `json:"-"`
	EndLabel        string         `json:"endDate"` // DD/MM/YYYY
	TotalDays       int            `json:"totalDays"`
	Reason          string         `json:"reason,omitempty"`
	Status          VacationStatus `json:"status"`
	RequestedAt     time.Time      `json:"requestedAt"`
	ApprovedBy      *string        `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time     `json:"approvedAt,omitempty"`
	RejectionReason *string        `json:"rejectionReason,omitempty"`
	Month           int            `json:"month"` // 起始日期所在的月份，用于按月检索
	Year            int            `json:"year"`
	Version         int32          `json:"-"`
}
