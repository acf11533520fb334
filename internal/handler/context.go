package handler

type ContextKey string

var (
	RoleCtxKey         ContextKey = "role"
	SubCtxKey          ContextKey = "sub"
	MyInfoCtx          ContextKey = "myInfo"
	OperatorInfoCtx    ContextKey = "operatorInfo"
	MonthScheduleCtx   ContextKey = "monthSchedule"
	SwapRequestCtx     ContextKey = "swapRequest"
	VacationRequestCtx ContextKey = "vacationRequest"
)
