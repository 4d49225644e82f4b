package model

import (
	"fmt"
	"math"
	"time"
)

// ShiftCategory 班次类别
type ShiftCategory string

const (
	CategoryCrew     ShiftCategory = "crew"     // 普通班次
	CategoryManager  ShiftCategory = "manager"  // 管理班次
	CategoryFlexible ShiftCategory = "flexible" // 弹性班次（仅双岗员工、淡季日）
)

// DemandTier 每日需求等级
type DemandTier string

const (
	TierRed    DemandTier = "Red"    // 高峰
	TierYellow DemandTier = "Yellow" // 中等
	TierGreen  DemandTier = "Green"  // 低谷
)

// Valid 检查需求等级是否合法
func (t DemandTier) Valid() bool {
	return t == TierRed || t == TierYellow || t == TierGreen
}

// Scale 整数缩放因子：小时和时薪放大 1000 倍做整数运算，避免浮点漂移
const Scale = 1000

// CostScale 成本缩放因子（小时缩放 × 时薪缩放）
const CostScale = Scale * Scale

// ScaleValue 将小数值缩放为整数
func ScaleValue(v float64) int64 {
	return int64(math.Round(v * Scale))
}

// ShiftDef 班次定义
type ShiftDef struct {
	Name     string        `json:"name"`
	Window   Window        `json:"window"`
	Hours    float64       `json:"hours"`
	Category ShiftCategory `json:"category"`
}

// HoursScaled 返回缩放后的班次时长
func (s *ShiftDef) HoursScaled() int64 {
	return ScaleValue(s.Hours)
}

// StaffingRules (需求等级, 班次, 岗位类别) → 目标人数
// 覆盖目标而非硬性下限：缺口通过软约束惩罚
type StaffingRules map[DemandTier]map[string]map[Role]int

// PayTable 薪酬表
type PayTable struct {
	// CrewByAge 非管理岗按年龄分档的时薪
	CrewByAge map[int]float64 `json:"crew_by_age"`
	// CrewFallback 年龄超出分档范围时的兜底时薪
	CrewFallback float64 `json:"crew_fallback"`
	// ManagerRate 管理岗统一时薪
	ManagerRate float64 `json:"manager_rate"`
	// WeekendMultiplier 管理岗周末时薪倍率（缺省 1）
	WeekendMultiplier map[Day]float64 `json:"weekend_multiplier"`
}

// CrewRate 查询非管理岗时薪
func (p *PayTable) CrewRate(age int) float64 {
	if rate, ok := p.CrewByAge[age]; ok {
		return rate
	}
	return p.CrewFallback
}

// ManagerRateOn 查询管理岗某天的实际时薪
func (p *PayTable) ManagerRateOn(d Day) float64 {
	mult := 1.0
	if m, ok := p.WeekendMultiplier[d]; ok {
		mult = m
	}
	return p.ManagerRate * mult
}

// Rules 全局约束参数
type Rules struct {
	// 硬约束上限
	MaxWeeklyCost      float64 `json:"max_weekly_cost"`       // 周人力成本预算
	MaxCrewWeeklyHours float64 `json:"max_crew_weekly_hours"` // 普通员工周工时上限
	ManagerShiftCap    int     `json:"manager_shift_cap"`     // 店长周管理班次上限
	RelayDayCap        int     `json:"relay_day_cap"`         // 轮值店长周出勤天数上限

	// 软约束目标
	PreferredWeeklyHours float64            `json:"preferred_weekly_hours"` // 员工周工时目标
	MinDailyHeadcount    map[DemandTier]int `json:"min_daily_headcount"`    // 按需求等级的每日最低出勤人数

	// 惩罚权重：管理班次缺口 ≫ 岗位人员缺口 > 每日人数缺口 ≫ 工时偏差
	ManagerCoverageWeight int64 `json:"manager_coverage_weight"`
	RoleShortfallWeight   int64 `json:"role_shortfall_weight"`
	DailyMinimumWeight    int64 `json:"daily_minimum_weight"`
	HourDeviationWeight   int64 `json:"hour_deviation_weight"`

	// 求解预算
	SolverTimeBudget time.Duration `json:"solver_time_budget"`
	SolverWorkers    int           `json:"solver_workers"`
}

// Catalog 排班参数目录：一次求解的不可变配置对象
// 显式传入建模器，不依赖任何包级可变状态
type Catalog struct {
	Shifts   []ShiftDef         `json:"shifts"`
	Demand   map[Day]DemandTier `json:"demand"`
	Staffing StaffingRules      `json:"staffing"`
	Pay      PayTable           `json:"pay"`
	Rules    Rules              `json:"rules"`
}

// ShiftByName 按名称查找班次定义
func (c *Catalog) ShiftByName(name string) *ShiftDef {
	for i := range c.Shifts {
		if c.Shifts[i].Name == name {
			return &c.Shifts[i]
		}
	}
	return nil
}

// ShiftsByCategory 按类别返回班次定义
func (c *Catalog) ShiftsByCategory(cat ShiftCategory) []*ShiftDef {
	var out []*ShiftDef
	for i := range c.Shifts {
		if c.Shifts[i].Category == cat {
			out = append(out, &c.Shifts[i])
		}
	}
	return out
}

// TierOn 返回某天的需求等级
func (c *Catalog) TierOn(d Day) DemandTier {
	return c.Demand[d]
}

// maxVarHeadroom 成本项求和的数量余量：最大单项成本乘以该余量不得溢出 int64
const maxVarHeadroom = 1 << 21

// Validate 在建模前检查目录配置
// 所有配置错误都是致命的，带出错字段信息，不重试
func (c *Catalog) Validate() error {
	if len(c.Shifts) == 0 {
		return fmt.Errorf("班次目录为空")
	}
	seen := make(map[string]bool, len(c.Shifts))
	for i := range c.Shifts {
		s := &c.Shifts[i]
		if s.Name == "" {
			return fmt.Errorf("班次 #%d 缺少名称", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("班次 %q 重复定义", s.Name)
		}
		seen[s.Name] = true
		if !s.Window.Valid() {
			return fmt.Errorf("班次 %q 的时间窗无效: %.2f-%.2f", s.Name, s.Window.Start, s.Window.End)
		}
		if s.Hours <= 0 || s.Hours > s.Window.Hours()+1e-9 {
			return fmt.Errorf("班次 %q 的时长无效: %.2f", s.Name, s.Hours)
		}
		switch s.Category {
		case CategoryCrew, CategoryManager, CategoryFlexible:
		default:
			return fmt.Errorf("班次 %q 的类别无效: %q", s.Name, s.Category)
		}
	}

	if len(c.Demand) != NumDays {
		return fmt.Errorf("需求日历必须覆盖全部 %d 天，当前 %d 天", NumDays, len(c.Demand))
	}
	for _, d := range Days() {
		tier, ok := c.Demand[d]
		if !ok {
			return fmt.Errorf("需求日历缺少 %s", d)
		}
		if !tier.Valid() {
			return fmt.Errorf("%s 的需求等级无效: %q", d, tier)
		}
		if _, ok := c.Staffing[tier]; !ok {
			return fmt.Errorf("需求等级 %q 没有对应的人员配置", tier)
		}
		if _, ok := c.Rules.MinDailyHeadcount[tier]; !ok {
			return fmt.Errorf("需求等级 %q 没有对应的每日最低人数", tier)
		}
	}

	for tier, byShift := range c.Staffing {
		for shiftName, byClass := range byShift {
			if c.ShiftByName(shiftName) == nil {
				return fmt.Errorf("人员配置引用了未定义的班次: %s/%s", tier, shiftName)
			}
			for class, count := range byClass {
				if count < 0 {
					return fmt.Errorf("人员配置 %s/%s/%s 的目标人数为负: %d", tier, shiftName, class, count)
				}
				switch class {
				case RoleFOH, RoleBOH, RoleManager:
				default:
					return fmt.Errorf("人员配置 %s/%s 的岗位类别无效: %q", tier, shiftName, class)
				}
			}
		}
	}

	if c.Pay.ManagerRate <= 0 {
		return fmt.Errorf("管理岗时薪无效: %.2f", c.Pay.ManagerRate)
	}
	if c.Pay.CrewFallback <= 0 {
		return fmt.Errorf("兜底时薪无效: %.2f", c.Pay.CrewFallback)
	}
	if c.Rules.MaxWeeklyCost < 0 {
		return fmt.Errorf("周成本预算为负: %.2f", c.Rules.MaxWeeklyCost)
	}
	if c.Rules.ManagerShiftCap <= 0 || c.Rules.RelayDayCap <= 0 || c.Rules.MaxCrewWeeklyHours <= 0 {
		return fmt.Errorf("周上限配置无效: manager_cap=%d relay_cap=%d crew_hours=%.1f",
			c.Rules.ManagerShiftCap, c.Rules.RelayDayCap, c.Rules.MaxCrewWeeklyHours)
	}
	if c.Rules.ManagerCoverageWeight <= c.Rules.RoleShortfallWeight ||
		c.Rules.RoleShortfallWeight < c.Rules.DailyMinimumWeight ||
		c.Rules.DailyMinimumWeight <= c.Rules.HourDeviationWeight {
		return fmt.Errorf("惩罚权重次序无效: 必须满足管理缺口 > 岗位缺口 >= 每日人数 > 工时偏差")
	}

	return c.checkScaleOverflow()
}

// checkScaleOverflow 整数缩放溢出防护
// 最大的单项缩放成本乘以数量余量必须落在 int64 可表示范围内
func (c *Catalog) checkScaleOverflow() error {
	maxRate := c.Pay.CrewFallback
	for _, r := range c.Pay.CrewByAge {
		if r > maxRate {
			maxRate = r
		}
	}
	for _, d := range Days() {
		if r := c.Pay.ManagerRateOn(d); r > maxRate {
			maxRate = r
		}
	}

	var maxHours float64
	for i := range c.Shifts {
		if c.Shifts[i].Hours > maxHours {
			maxHours = c.Shifts[i].Hours
		}
	}

	maxTerm := ScaleValue(maxHours) * ScaleValue(maxRate)
	if maxTerm > math.MaxInt64/maxVarHeadroom {
		return fmt.Errorf("缩放溢出: 最大成本项 %d 超出可表示范围，请降低时薪或缩放因子", maxTerm)
	}
	budget := int64(math.Round(c.Rules.MaxWeeklyCost * CostScale))
	if budget < 0 || c.Rules.MaxWeeklyCost > float64(math.MaxInt64)/CostScale/2 {
		return fmt.Errorf("缩放溢出: 周成本预算 %.2f 超出可表示范围", c.Rules.MaxWeeklyCost)
	}
	return nil
}

// CostBudgetScaled 返回缩放后的周成本预算
func (c *Catalog) CostBudgetScaled() int64 {
	return int64(math.Round(c.Rules.MaxWeeklyCost * CostScale))
}

// CrewHourCapScaled 返回缩放后的普通员工周工时上限
func (c *Catalog) CrewHourCapScaled() int64 {
	return ScaleValue(c.Rules.MaxCrewWeeklyHours)
}

// PreferredHoursScaled 返回缩放后的周工时目标
func (c *Catalog) PreferredHoursScaled() int64 {
	return ScaleValue(c.Rules.PreferredWeeklyHours)
}

// EffectiveRate 计算某员工在某天排某班次的实际时薪
func (c *Catalog) EffectiveRate(s *Staff, d Day, shift *ShiftDef) float64 {
	if shift.Category == CategoryManager {
		return c.Pay.ManagerRateOn(d)
	}
	return c.Pay.CrewRate(s.Age)
}
