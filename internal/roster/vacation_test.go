package roster

import (
	"errors"
	"testing"
	"time"

	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/duty-roster/backend/internal/utils"
)

func testOperator(name string) *domain.Operator {
	return &domain.Operator{DisplayName: name, IsActive: true}
}

func TestRangesOverlap(t *testing.T) {
	cases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"完全分离", testDate(2025, 3, 1), testDate(2025, 3, 5), testDate(2025, 3, 10), testDate(2025, 3, 12), false},
		{"首尾相接", testDate(2025, 3, 1), testDate(2025, 3, 5), testDate(2025, 3, 5), testDate(2025, 3, 8), true},
		{"部分重叠", testDate(2025, 3, 1), testDate(2025, 3, 5), testDate(2025, 3, 3), testDate(2025, 3, 8), true},
		{"完全包含", testDate(2025, 3, 1), testDate(2025, 3, 10), testDate(2025, 3, 3), testDate(2025, 3, 5), true},
		{"单日重合", testDate(2025, 3, 5), testDate(2025, 3, 5), testDate(2025, 3, 5), testDate(2025, 3, 5), true},
	}
	for _, c := range cases {
		if got := RangesOverlap(c.s1, c.e1, c.s2, c.e2); got != c.want {
			t.Errorf("%s：期望 %v，实际为 %v", c.name, c.want, got)
		}
	}
}

func TestValidateVacationRange(t *testing.T) {
	now := testDate(2025, 3, 1)

	if err := ValidateVacationRange(testDate(2025, 3, 10), testDate(2025, 3, 12), 3, now); err != nil {
		t.Errorf("合法的休假范围不应报错：%v", err)
	}
	if err := ValidateVacationRange(testDate(2025, 3, 12), testDate(2025, 3, 10), 3, now); err == nil {
		t.Error("结束日期早于开始日期时期望报错")
	}
	if err := ValidateVacationRange(testDate(2025, 2, 20), testDate(2025, 3, 10), 19, now); err == nil {
		t.Error("开始日期在过去时期望报错")
	}
	if err := ValidateVacationRange(testDate(2025, 3, 10), testDate(2025, 3, 12), 5, now); err == nil {
		t.Error("声明天数与实际天数不一致时期望报错")
	}
	// 单日休假
	if err := ValidateVacationRange(testDate(2025, 3, 10), testDate(2025, 3, 10), 1, now); err != nil {
		t.Errorf("单日休假不应报错：%v", err)
	}
}

func TestCheckVacationOverlap(t *testing.T) {
	req := &domain.VacationRequest{
		OperatorName: "张伟",
		StartDate:    testDate(2025, 3, 10),
		EndDate:      testDate(2025, 3, 14),
	}

	approved := []*domain.VacationRequest{
		{
			OperatorName: "李娜",
			StartDate:    testDate(2025, 3, 12),
			EndDate:      testDate(2025, 3, 16),
			StartLabel:   "12/03/2025",
			EndLabel:     "16/03/2025",
			Status:       domain.VacationStatusApproved,
		},
	}

	var conflictErr *domain.ConflictError
	if err := CheckVacationOverlap(req, approved); !errors.As(err, &conflictErr) {
		t.Errorf("与他人已批准的休假重叠时期望返回冲突错误，实际为 %v", err)
	}

	// 自己的休假不参与重叠检测
	approved[0].OperatorName = "张伟"
	if err := CheckVacationOverlap(req, approved); err != nil {
		t.Errorf("同一前台自己的记录不应触发冲突：%v", err)
	}

	// 未批准的休假不参与重叠检测
	approved[0].OperatorName = "李娜"
	approved[0].Status = domain.VacationStatusPending
	if err := CheckVacationOverlap(req, approved); err != nil {
		t.Errorf("未批准的休假不应触发冲突：%v", err)
	}
}

func TestPickReplacement(t *testing.T) {
	operators := []*domain.Operator{
		testOperator("Alice"),
		testOperator("Bob"),
		testOperator("Carol"),
		testOperator("张伟"),
	}
	counts := map[string]int{
		"alice": 5,
		"bob":   2,
		"carol": 4,
	}

	name, err := PickReplacement(operators, counts, "张伟")
	if err != nil {
		t.Fatalf("选择顶班前台失败：%v", err)
	}
	if name != "Bob" {
		t.Errorf("期望选出班次最少的 Bob，实际为 %s", name)
	}
}

func TestPickReplacementTieBreaksByName(t *testing.T) {
	operators := []*domain.Operator{
		testOperator("carol"),
		testOperator("Bob"),
		testOperator("alice"),
	}
	counts := map[string]int{"alice": 2, "bob": 2, "carol": 2}

	name, err := PickReplacement(operators, counts, "")
	if err != nil {
		t.Fatalf("选择顶班前台失败：%v", err)
	}
	if name != "alice" {
		t.Errorf("并列时期望按名字顺序（忽略大小写）取第一个，实际为 %s", name)
	}
}

func TestPickReplacementFiltersCandidates(t *testing.T) {
	inactive := testOperator("Alice")
	inactive.IsActive = false
	hidden := testOperator("Bob")
	hidden.HiddenFromSchedule = true
	operators := []*domain.Operator{inactive, hidden, testOperator("Carol")}

	name, err := PickReplacement(operators, map[string]int{}, "")
	if err != nil {
		t.Fatalf("选择顶班前台失败：%v", err)
	}
	if name != "Carol" {
		t.Errorf("离职和隐藏的前台不应成为候选，实际选出 %s", name)
	}

	var notFoundErr *domain.NotFoundError
	if _, err := PickReplacement(operators, map[string]int{}, "Carol"); !errors.As(err, &notFoundErr) {
		t.Errorf("没有候选人时期望返回未找到错误，实际为 %v", err)
	}
}

func TestApproveVacation(t *testing.T) {
	now := time.Now()

	req := &domain.VacationRequest{Status: domain.VacationStatusPending}
	if err := ApproveVacation(req, "管理员", now); err != nil {
		t.Fatalf("批准待审批的休假失败：%v", err)
	}
	if req.Status != domain.VacationStatusApproved || req.ApprovedBy == nil || *req.ApprovedBy != "管理员" {
		t.Errorf("批准后状态不正确：%+v", req)
	}

	// 已批准的申请允许重复批准，用于失败后的重试
	if err := ApproveVacation(req, "管理员", now); err != nil {
		t.Errorf("重复批准已批准的休假不应报错：%v", err)
	}

	rejected := &domain.VacationRequest{Status: domain.VacationStatusRejected}
	var stateErr *domain.StateError
	if err := ApproveVacation(rejected, "管理员", now); !errors.As(err, &stateErr) {
		t.Errorf("批准已驳回的休假时期望返回状态错误，实际为 %v", err)
	}
}

func TestRejectVacation(t *testing.T) {
	now := time.Now()

	req := &domain.VacationRequest{Status: domain.VacationStatusPending}
	if err := RejectVacation(req, "管理员", "  ", now); err == nil {
		t.Error("驳回理由为空时期望报错")
	}
	if err := RejectVacation(req, "管理员", "人手不足", now); err != nil {
		t.Fatalf("驳回失败：%v", err)
	}
	if req.Status != domain.VacationStatusRejected || req.RejectionReason == nil || *req.RejectionReason != "人手不足" {
		t.Errorf("驳回后状态不正确：%+v", req)
	}

	var stateErr *domain.StateError
	if err := RejectVacation(req, "管理员", "再次驳回", now); !errors.As(err, &stateErr) {
		t.Errorf("驳回已处理的休假时期望返回状态错误，实际为 %v", err)
	}
}

func vacationFixture() (*domain.VacationRequest, *domain.MonthSchedule, []*domain.Operator) {
	req := &domain.VacationRequest{
		OperatorName: "张伟",
		StartDate:    testDate(2025, 3, 10),
		EndDate:      testDate(2025, 3, 12),
		TotalDays:    3,
		Status:       domain.VacationStatusApproved,
	}

	// 张伟持有 10 号半天班、11 号闭馆班；12 号与他无关。
	// Alice 当月班次比 Bob 多，顶班应该优先选 Bob。
	schedule := testSchedule(3, 2025,
		testEntry(testDate(2025, 3, 10), "张伟", "Alice"),
		testEntry(testDate(2025, 3, 11), "Alice", "张伟"),
		testEntry(testDate(2025, 3, 12), "Alice", "Bob"),
	)

	operators := []*domain.Operator{
		testOperator("Alice"),
		testOperator("Bob"),
		testOperator("张伟"),
	}

	return req, schedule, operators
}

func TestApplyVacationCoverage(t *testing.T) {
	req, schedule, operators := vacationFixture()
	schedules := map[int]*domain.MonthSchedule{
		utils.MonthIndex(2025, 3): schedule,
	}

	changes, err := ApplyVacationCoverage(req, schedules, operators)
	if err != nil {
		t.Fatalf("计算顶班失败：%v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("期望 2 个班次被顶替，实际为 %d：%+v", len(changes), changes)
	}

	if got := schedule.EntryOn(testDate(2025, 3, 10)).HalfDayOperator; got != "Bob" {
		t.Errorf("10 号半天班期望由班次最少的 Bob 顶替，实际为 %q", got)
	}
	if got := schedule.EntryOn(testDate(2025, 3, 11)).ClosingOperator; got != "Bob" {
		t.Errorf("11 号闭馆班期望由 Bob 顶替，实际为 %q", got)
	}
	// 与休假者无关的班次不应改动
	if got := schedule.EntryOn(testDate(2025, 3, 12)).HalfDayOperator; got != "Alice" {
		t.Errorf("12 号半天班不应被改动，实际为 %q", got)
	}
}

func TestApplyVacationCoverageIsIdempotent(t *testing.T) {
	req, schedule, operators := vacationFixture()
	schedules := map[int]*domain.MonthSchedule{
		utils.MonthIndex(2025, 3): schedule,
	}

	if _, err := ApplyVacationCoverage(req, schedules, operators); err != nil {
		t.Fatalf("第一次计算顶班失败：%v", err)
	}

	// 重复执行时休假者已不再持有任何班次，不应产生新的变化
	changes, err := ApplyVacationCoverage(req, schedules, operators)
	if err != nil {
		t.Fatalf("第二次计算顶班失败：%v", err)
	}
	if len(changes) != 0 {
		t.Errorf("重复执行期望没有新的顶班，实际为 %+v", changes)
	}
}

func TestApplyVacationCoverageRecountsPerDay(t *testing.T) {
	// 张伟连续三天都持有半天班，Alice 和 Bob 初始班次数相同。
	// 每顶替一天都要重新统计，顶班应当在两人之间轮流。
	req := &domain.VacationRequest{
		OperatorName: "张伟",
		StartDate:    testDate(2025, 3, 10),
		EndDate:      testDate(2025, 3, 12),
		Status:       domain.VacationStatusApproved,
	}
	schedule := testSchedule(3, 2025,
		testEntry(testDate(2025, 3, 10), "张伟", ""),
		testEntry(testDate(2025, 3, 11), "张伟", ""),
		testEntry(testDate(2025, 3, 12), "张伟", ""),
	)
	operators := []*domain.Operator{testOperator("Alice"), testOperator("Bob")}
	schedules := map[int]*domain.MonthSchedule{
		utils.MonthIndex(2025, 3): schedule,
	}

	changes, err := ApplyVacationCoverage(req, schedules, operators)
	if err != nil {
		t.Fatalf("计算顶班失败：%v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("期望 3 个班次被顶替，实际为 %d", len(changes))
	}
	if changes[0].Replacement != "Alice" || changes[1].Replacement != "Bob" || changes[2].Replacement != "Alice" {
		t.Errorf("期望顶班在 Alice 和 Bob 之间轮流，实际为 %+v", changes)
	}
}

func TestApplyVacationCoverageSkipsMissingMonths(t *testing.T) {
	// 休假从三月底跨到四月初，但四月还没有班表
	req := &domain.VacationRequest{
		OperatorName: "张伟",
		StartDate:    testDate(2025, 3, 31),
		EndDate:      testDate(2025, 4, 2),
		Status:       domain.VacationStatusApproved,
	}
	schedule := testSchedule(3, 2025,
		testEntry(testDate(2025, 3, 31), "张伟", "Alice"),
	)
	operators := []*domain.Operator{testOperator("Alice"), testOperator("Bob"), testOperator("张伟")}
	schedules := map[int]*domain.MonthSchedule{
		utils.MonthIndex(2025, 3): schedule,
	}

	changes, err := ApplyVacationCoverage(req, schedules, operators)
	if err != nil {
		t.Fatalf("缺失月份的班表不应导致失败：%v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("期望只有三月的班次被顶替，实际为 %+v", changes)
	}
	if changes[0].DateLabel != "31/03/2025" {
		t.Errorf("顶班日期不正确：%s", changes[0].DateLabel)
	}
}
