package catalog

import (
	"testing"

	"github.com/paiban/rosterd/pkg/model"
)

// TestDefaultValid 内置目录必须通过校验
func TestDefaultValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("内置目录校验失败: %v", err)
	}
}

// TestDefaultShifts 班次清单与类别
func TestDefaultShifts(t *testing.T) {
	cat := Default()

	cases := []struct {
		name     string
		start    float64
		end      float64
		hours    float64
		category model.ShiftCategory
	}{
		{"ShiftA", 5.5, 13.5, 8, model.CategoryCrew},
		{"ShiftB", 7, 14, 7, model.CategoryCrew},
		{"ShiftC", 16.75, 21.5, 4.75, model.CategoryCrew},
		{"ShiftD", 14, 21.5, 7.5, model.CategoryCrew},
		{"Flex", 8, 13, 5, model.CategoryFlexible},
		{"Morn_Manager", 5.5, 13.5, 8, model.CategoryManager},
		{"Aft_Manager", 13.5, 21.5, 8, model.CategoryManager},
	}
	if len(cat.Shifts) != len(cases) {
		t.Fatalf("班次数 = %d, 期望 %d", len(cat.Shifts), len(cases))
	}
	for _, c := range cases {
		s := cat.ShiftByName(c.name)
		if s == nil {
			t.Errorf("缺少班次 %s", c.name)
			continue
		}
		if s.Window.Start != c.start || s.Window.End != c.end || s.Hours != c.hours || s.Category != c.category {
			t.Errorf("%s = %+v, 期望 %.2f-%.2f %.2fh %s", c.name, s, c.start, c.end, c.hours, c.category)
		}
	}
	if n := len(cat.ShiftsByCategory(model.CategoryManager)); n != 2 {
		t.Errorf("管理班次数 = %d, 期望 2", n)
	}
}

// TestDefaultDemandCalendar 需求日历
func TestDefaultDemandCalendar(t *testing.T) {
	cat := Default()

	want := map[model.Day]model.DemandTier{
		model.Monday:    model.TierRed,
		model.Tuesday:   model.TierYellow,
		model.Wednesday: model.TierRed,
		model.Thursday:  model.TierGreen,
		model.Friday:    model.TierRed,
		model.Saturday:  model.TierYellow,
		model.Sunday:    model.TierGreen,
	}
	for d, tier := range want {
		if got := cat.TierOn(d); got != tier {
			t.Errorf("%s 需求等级 = %s, 期望 %s", d, got, tier)
		}
	}
}

// TestDefaultStaffing 人员配置：Red 日晚市后厨需求高于淡季
func TestDefaultStaffing(t *testing.T) {
	cat := Default()

	if got := cat.Staffing[model.TierRed]["ShiftB"][model.RoleBOH]; got != 2 {
		t.Errorf("Red/ShiftB 后厨目标 = %d, 期望 2", got)
	}
	if got := cat.Staffing[model.TierGreen]["ShiftB"][model.RoleBOH]; got != 1 {
		t.Errorf("Green/ShiftB 后厨目标 = %d, 期望 1", got)
	}
	// Red 日无 ShiftD 后厨需求，淡季有
	if got := cat.Staffing[model.TierRed]["ShiftD"][model.RoleBOH]; got != 0 {
		t.Errorf("Red/ShiftD 后厨目标 = %d, 期望 0", got)
	}
	if got := cat.Staffing[model.TierGreen]["ShiftD"][model.RoleBOH]; got != 1 {
		t.Errorf("Green/ShiftD 后厨目标 = %d, 期望 1", got)
	}
}

// TestDefaultPay 薪酬表：年龄分档、兜底时薪、周末倍率
func TestDefaultPay(t *testing.T) {
	p := Default().Pay

	if got := p.CrewRate(16); got != 12 {
		t.Errorf("CrewRate(16) = %.2f, 期望 12", got)
	}
	if got := p.CrewRate(25); got != 19 {
		t.Errorf("CrewRate(25) = %.2f, 期望 19", got)
	}
	if got := p.CrewRate(40); got != 18 {
		t.Errorf("CrewRate(40) 兜底 = %.2f, 期望 18", got)
	}
	if got := p.ManagerRateOn(model.Wednesday); got != 30 {
		t.Errorf("工作日管理时薪 = %.2f, 期望 30", got)
	}
	if got := p.ManagerRateOn(model.Saturday); got != 36 {
		t.Errorf("周六管理时薪 = %.2f, 期望 36", got)
	}
	if got := p.ManagerRateOn(model.Sunday); got != 45 {
		t.Errorf("周日管理时薪 = %.2f, 期望 45", got)
	}
}

// TestDefaultRules 约束参数
func TestDefaultRules(t *testing.T) {
	r := Default().Rules

	if r.MaxWeeklyCost != 20000 || r.MaxCrewWeeklyHours != 38 {
		t.Errorf("预算/工时上限 = %.0f/%.0f", r.MaxWeeklyCost, r.MaxCrewWeeklyHours)
	}
	if r.ManagerShiftCap != 4 || r.RelayDayCap != 5 {
		t.Errorf("管理上限 = %d/%d, 期望 4/5", r.ManagerShiftCap, r.RelayDayCap)
	}
	if r.MinDailyHeadcount[model.TierRed] != 14 ||
		r.MinDailyHeadcount[model.TierYellow] != 12 ||
		r.MinDailyHeadcount[model.TierGreen] != 10 {
		t.Errorf("每日最低人数 = %v", r.MinDailyHeadcount)
	}
	// 权重分级：管理缺口必须压倒其余全部惩罚之和的量级
	if r.ManagerCoverageWeight != 1_000_000 || r.RoleShortfallWeight != 10_000 ||
		r.DailyMinimumWeight != 5_000 || r.HourDeviationWeight != 1 {
		t.Errorf("惩罚权重 = %d/%d/%d/%d", r.ManagerCoverageWeight, r.RoleShortfallWeight,
			r.DailyMinimumWeight, r.HourDeviationWeight)
	}
}

// TestDefaultIndependentCopies 每次调用返回独立副本，调用方可安全覆盖
func TestDefaultIndependentCopies(t *testing.T) {
	a := Default()
	a.Rules.MaxWeeklyCost = 1
	a.Demand[model.Monday] = model.TierGreen
	a.Staffing[model.TierRed]["ShiftA"][model.RoleFOH] = 99

	b := Default()
	if b.Rules.MaxWeeklyCost != 20000 {
		t.Error("规则修改泄漏到后续副本")
	}
	if b.Demand[model.Monday] != model.TierRed {
		t.Error("需求日历修改泄漏到后续副本")
	}
	if b.Staffing[model.TierRed]["ShiftA"][model.RoleFOH] != 1 {
		t.Error("人员配置修改泄漏到后续副本")
	}
}
