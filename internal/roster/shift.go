package roster

import (
	"fmt"
	"strings"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
)

// 导入源中的班次代号并不统一，这里做宽容匹配
var shiftCodeMap = map[string]domain.ShiftSlot{
	"halfday": domain.ShiftHalfDay,
	"half":    domain.ShiftHalfDay,
	"am":      domain.ShiftHalfDay,
	"半天":      domain.ShiftHalfDay,
	"半天班":     domain.ShiftHalfDay,
	"closing": domain.ShiftClosing,
	"close":   domain.ShiftClosing,
	"pm":      domain.ShiftClosing,
	"闭馆":      domain.ShiftClosing,
	"闭馆班":     domain.ShiftClosing,
}

func ParseShiftCode(code string) (domain.ShiftSlot, error) {
	normalized := strings.ToLower(strings.TrimSpace(code))
	if slot, ok := shiftCodeMap[normalized]; ok {
		return slot, nil
	}
	return "", fmt.Errorf("无法识别的班次代号 %q", code)
}
