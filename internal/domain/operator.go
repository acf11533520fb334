package domain

import (
	"time"
)

type Role string

const (
	RoleOperator   Role = "前台"
	RoleAdmin      Role = "管理员"
	RoleSuperAdmin Role = "超级管理员"
)

type Operator struct {
	ID                 int64     `json:"id"`
	Username           string    `json:"username"`
	PasswordHash       string    `json:"-"`
	DisplayName        string    `json:"displayName"` // 班表中使用的名字，不区分大小写地唯一
	Email              string    `json:"email"`
	Role               Role      `json:"role"`
	IsActive           bool      `json:"isActive"`
	HiddenFromSchedule bool      `json:"hiddenFromSchedule"` // 隐藏的前台不参与顶班
	CreatedAt          time.Time `json:"createdAt"`
	Version            int32     `json:"-"`
}

// 管理员和超级管理员都具有审批权限
func (o *Operator) IsAdmin() bool {
	return o.Role == RoleAdmin || o.Role == RoleSuperAdmin
}
