package model

import (
	"testing"
	"time"
)

// testCatalog 构造一个最小的合法参数目录
func testCatalog() *Catalog {
	return &Catalog{
		Shifts: []ShiftDef{
			{Name: "Early", Window: Window{Start: 8, End: 16}, Hours: 8, Category: CategoryCrew},
			{Name: "Lead", Window: Window{Start: 8, End: 16}, Hours: 8, Category: CategoryManager},
		},
		Demand: map[Day]DemandTier{
			Monday: TierRed, Tuesday: TierGreen, Wednesday: TierGreen,
			Thursday: TierGreen, Friday: TierGreen, Saturday: TierGreen, Sunday: TierGreen,
		},
		Staffing: StaffingRules{
			TierRed:   {"Early": {RoleFOH: 2}},
			TierGreen: {"Early": {RoleFOH: 1}},
		},
		Pay: PayTable{
			CrewByAge:    map[int]float64{20: 14},
			CrewFallback: 13,
			ManagerRate:  30,
			WeekendMultiplier: map[Day]float64{
				Saturday: 1.2, Sunday: 1.5,
			},
		},
		Rules: Rules{
			MaxWeeklyCost:        10000,
			MaxCrewWeeklyHours:   38,
			ManagerShiftCap:      4,
			RelayDayCap:          5,
			PreferredWeeklyHours: 24,
			MinDailyHeadcount:    map[DemandTier]int{TierRed: 2, TierGreen: 1},
			ManagerCoverageWeight: 1_000_000,
			RoleShortfallWeight:   10_000,
			DailyMinimumWeight:    5_000,
			HourDeviationWeight:   1,
			SolverTimeBudget:      time.Second,
		},
	}
}

// TestCatalogValidate 参数目录校验测试
func TestCatalogValidate(t *testing.T) {
	if err := testCatalog().Validate(); err != nil {
		t.Fatalf("合法目录校验失败: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Catalog)
	}{
		{"空班次目录", func(c *Catalog) { c.Shifts = nil }},
		{"班次重名", func(c *Catalog) { c.Shifts = append(c.Shifts, c.Shifts[0]) }},
		{"时间窗倒置", func(c *Catalog) { c.Shifts[0].Window = Window{Start: 16, End: 8} }},
		{"时长超过时间窗", func(c *Catalog) { c.Shifts[0].Hours = 10 }},
		{"未知班次类别", func(c *Catalog) { c.Shifts[0].Category = "night" }},
		{"需求日历缺天", func(c *Catalog) { delete(c.Demand, Sunday) }},
		{"未知需求等级", func(c *Catalog) { c.Demand[Monday] = "Blue" }},
		{"人员配置引用未定义班次", func(c *Catalog) {
			c.Staffing[TierGreen]["Night"] = map[Role]int{RoleFOH: 1}
		}},
		{"人员配置目标人数为负", func(c *Catalog) {
			c.Staffing[TierGreen]["Early"][RoleFOH] = -1
		}},
		{"人员配置岗位类别无效", func(c *Catalog) {
			c.Staffing[TierGreen]["Early"][RoleBoth] = 1
		}},
		{"管理岗时薪无效", func(c *Catalog) { c.Pay.ManagerRate = 0 }},
		{"周成本预算为负", func(c *Catalog) { c.Rules.MaxWeeklyCost = -1 }},
		{"周上限为零", func(c *Catalog) { c.Rules.ManagerShiftCap = 0 }},
		{"权重次序颠倒", func(c *Catalog) { c.Rules.ManagerCoverageWeight = 1 }},
	}

	for _, c := range cases {
		cat := testCatalog()
		c.mutate(cat)
		if err := cat.Validate(); err == nil {
			t.Errorf("%s: 应当校验失败", c.name)
		}
	}
}

// TestPayTable 薪酬查询测试
func TestPayTable(t *testing.T) {
	p := testCatalog().Pay

	if got := p.CrewRate(20); got != 14 {
		t.Errorf("CrewRate(20) = %.2f, 期望 14", got)
	}
	if got := p.CrewRate(40); got != 13 {
		t.Errorf("年龄超出分档应使用兜底时薪, 得到 %.2f", got)
	}
	if got := p.ManagerRateOn(Monday); got != 30 {
		t.Errorf("ManagerRateOn(Mon) = %.2f, 期望 30", got)
	}
	if got := p.ManagerRateOn(Saturday); got != 36 {
		t.Errorf("ManagerRateOn(Sat) = %.2f, 期望 36", got)
	}
	if got := p.ManagerRateOn(Sunday); got != 45 {
		t.Errorf("ManagerRateOn(Sun) = %.2f, 期望 45", got)
	}
}

// TestScaleValue 整数缩放测试
func TestScaleValue(t *testing.T) {
	cases := []struct {
		input float64
		want  int64
	}{
		{8, 8000},
		{4.75, 4750},
		{13.5, 13500},
		{0.0005, 1}, // 四舍五入
	}
	for _, c := range cases {
		if got := ScaleValue(c.input); got != c.want {
			t.Errorf("ScaleValue(%.4f) = %d, 期望 %d", c.input, got, c.want)
		}
	}
}

// TestEffectiveRate 实际时薪计算测试
func TestEffectiveRate(t *testing.T) {
	cat := testCatalog()
	crew := &Staff{ID: "c1", Role: RoleFOH, Age: 20}
	mgr := &Staff{ID: "m1", Role: RoleManager, Age: 35}

	crewShift := cat.ShiftByName("Early")
	mgrShift := cat.ShiftByName("Lead")

	if got := cat.EffectiveRate(crew, Monday, crewShift); got != 14 {
		t.Errorf("普通员工时薪 = %.2f, 期望 14", got)
	}
	// 管理班次的时薪与员工年龄无关，按天取周末倍率
	if got := cat.EffectiveRate(mgr, Sunday, mgrShift); got != 45 {
		t.Errorf("店长周日时薪 = %.2f, 期望 45", got)
	}
}
