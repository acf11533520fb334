package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

// 只有持有者本人的令牌才能删除锁，避免操作超时后误删下一个持有者的锁
var releaseMonthLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// 对某个月份的班表加互斥锁，保证同一时间只有一个流程在改写它。
// 锁带过期时间，持有者崩溃后会自动释放；
// 数据库侧的版本号校验仍然是最终的安全网。
func (h *Handler) lockMonth(month int, year int) (func(), error) {
	key := fmt.Sprintf("lock_schedule_%d_%d", year, month)
	token := utils.GenerateRandomPassword(16)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
	defer cancel()

	ok, err := h.redisClient.SetNX(ctx, key, token, time.Duration(h.config.Roster.LockExpiration)*time.Second).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.ConflictError{Message: fmt.Sprintf("%d/%d 的班表正在被其他操作修改，请稍后重试", month, year)}
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(h.config.Redis.OperationExpiration)*time.Second)
		defer cancel()
		_ = releaseMonthLockScript.Run(ctx, h.redisClient, []string{key}, token).Err()
	}

	return release, nil
}
