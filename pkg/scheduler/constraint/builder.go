package constraint

import (
	"fmt"
	"sort"

	"github.com/paiban/rosterd/pkg/model"
	"github.com/paiban/rosterd/pkg/scheduler/variable"
)

// Builder 从参数目录和变量集合构建优化模型
type Builder struct {
	catalog *model.Catalog
	vars    *variable.Set
}

// NewBuilder 创建模型构建器
// 目录必须已通过 Validate，变量集合必须由同一目录生成
func NewBuilder(catalog *model.Catalog, vars *variable.Set) *Builder {
	return &Builder{catalog: catalog, vars: vars}
}

// Build 构建完整的优化模型
func (b *Builder) Build() (*Model, error) {
	if err := b.catalog.Validate(); err != nil {
		return nil, fmt.Errorf("参数目录无效: %w", err)
	}

	m := &Model{NumVars: b.vars.Len()}

	b.buildSlots(m)
	b.buildManagerExclusive(m)
	b.buildWeeklyCaps(m)
	b.buildCostCeiling(m)

	b.buildManagerCoverage(m)
	b.buildRoleShortfall(m)
	b.buildDailyMinimum(m)
	b.buildHourDeviation(m)

	m.buildVarIndex()
	return m, nil
}

// buildSlots 一人一天至多一班（结构性硬约束）
func (b *Builder) buildSlots(m *Model) {
	type slotKey struct {
		day   model.Day
		staff string
	}
	groups := make(map[slotKey][]int)
	var keys []slotKey
	// 变量已按 (日, 班次名, 员工) 排序，组内选项天然按班次名升序
	for _, v := range b.vars.All() {
		k := slotKey{day: v.Key.Day, staff: v.Key.Staff}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], v.Index)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].day != keys[j].day {
			return keys[i].day < keys[j].day
		}
		return keys[i].staff < keys[j].staff
	})
	for _, k := range keys {
		m.Slots = append(m.Slots, Slot{Staff: k.staff, Day: int(k.day), Options: groups[k]})
	}
}

// buildManagerExclusive 每个 (日, 管理班次) 至多一名管理者
// 与覆盖软约束配合，等价于原始编码中的 Σx + u = 1
func (b *Builder) buildManagerExclusive(m *Model) {
	for _, d := range model.Days() {
		for _, shift := range b.catalog.ShiftsByCategory(model.CategoryManager) {
			vars, coeffs := b.candidates(d, shift.Name, nil)
			if len(vars) < 2 {
				continue
			}
			m.Caps = append(m.Caps, Cap{
				Name:   fmt.Sprintf("manager_exclusive_%s_%s", d, shift.Name),
				Vars:   vars,
				Coeffs: coeffs,
				Bound:  1,
			})
		}
	}
}

// buildWeeklyCaps 周上限：店长管理班次数、轮值店长出勤天数、普通员工工时
func (b *Builder) buildWeeklyCaps(m *Model) {
	type perStaff struct {
		role   model.Role
		vars   []int
		hours  []int64
		counts []int64
	}
	byStaff := make(map[string]*perStaff)
	var order []string
	for _, v := range b.vars.All() {
		ps, ok := byStaff[v.Key.Staff]
		if !ok {
			ps = &perStaff{role: v.Role}
			byStaff[v.Key.Staff] = ps
			order = append(order, v.Key.Staff)
		}
		ps.vars = append(ps.vars, v.Index)
		ps.hours = append(ps.hours, v.HoursScaled)
		ps.counts = append(ps.counts, 1)
	}
	sort.Strings(order)

	for _, id := range order {
		ps := byStaff[id]
		switch {
		case ps.role == model.RoleManager:
			m.Caps = append(m.Caps, Cap{
				Name:   "manager_shift_cap_" + id,
				Vars:   ps.vars,
				Coeffs: ps.counts,
				Bound:  int64(b.catalog.Rules.ManagerShiftCap),
			})
		case ps.role == model.RoleRelayManager:
			// 一人一天至多一班，变量数即出勤天数
			m.Caps = append(m.Caps, Cap{
				Name:   "relay_day_cap_" + id,
				Vars:   ps.vars,
				Coeffs: ps.counts,
				Bound:  int64(b.catalog.Rules.RelayDayCap),
			})
		default:
			m.Caps = append(m.Caps, Cap{
				Name:   "crew_hour_cap_" + id,
				Vars:   ps.vars,
				Coeffs: ps.hours,
				Bound:  b.catalog.CrewHourCapScaled(),
			})
		}
	}
}

// buildCostCeiling 周成本预算（硬约束，非惩罚）
func (b *Builder) buildCostCeiling(m *Model) {
	vars := make([]int, 0, b.vars.Len())
	coeffs := make([]int64, 0, b.vars.Len())
	for _, v := range b.vars.All() {
		vars = append(vars, v.Index)
		coeffs = append(coeffs, v.CostScaled)
	}
	m.Caps = append(m.Caps, Cap{
		Name:   "weekly_cost_ceiling",
		Vars:   vars,
		Coeffs: coeffs,
		Bound:  b.catalog.CostBudgetScaled(),
	})
}

// buildManagerCoverage 每个 (日, 管理班次) 目标恰好一人
// 无候选人时惩罚项仍然生成，缺口照常计入目标
func (b *Builder) buildManagerCoverage(m *Model) {
	for _, d := range model.Days() {
		for _, shift := range b.catalog.ShiftsByCategory(model.CategoryManager) {
			vars, coeffs := b.candidates(d, shift.Name, nil)
			m.Terms = append(m.Terms, Term{
				Kind:   SlackManagerCoverage,
				Name:   fmt.Sprintf("uncovered_%s_%s", d, shift.Name),
				Vars:   vars,
				Coeffs: coeffs,
				Target: 1,
				Bound:  1,
				Weight: b.catalog.Rules.ManagerCoverageWeight,
			})
		}
	}
}

// buildRoleShortfall 每个 (日, 班次, 岗位类别) 的人员缺口
func (b *Builder) buildRoleShortfall(m *Model) {
	for _, d := range model.Days() {
		tier := b.catalog.TierOn(d)
		byShift := b.catalog.Staffing[tier]

		// 遍历目录顺序保证确定性
		for i := range b.catalog.Shifts {
			shift := &b.catalog.Shifts[i]
			byClass, ok := byShift[shift.Name]
			if !ok {
				continue
			}
			for _, class := range []model.Role{model.RoleFOH, model.RoleBOH, model.RoleManager} {
				required, ok := byClass[class]
				if !ok || required == 0 {
					continue
				}
				cls := class
				vars, coeffs := b.candidates(d, shift.Name, func(v *variable.Variable) bool {
					return v.Role.CoversClass(cls)
				})
				if len(vars) == 0 {
					continue
				}
				m.Terms = append(m.Terms, Term{
					Kind:   SlackRoleShortfall,
					Name:   fmt.Sprintf("understaffed_%s_%s_%s", d, shift.Name, class),
					Vars:   vars,
					Coeffs: coeffs,
					Target: int64(required),
					Bound:  int64(required),
					Weight: b.catalog.Rules.RoleShortfallWeight,
				})
			}
		}
	}
}

// buildDailyMinimum 每日最低出勤人数（按需求等级）
func (b *Builder) buildDailyMinimum(m *Model) {
	for _, d := range model.Days() {
		minStaff := b.catalog.Rules.MinDailyHeadcount[b.catalog.TierOn(d)]
		if minStaff <= 0 {
			continue
		}
		var vars []int
		var coeffs []int64
		for _, v := range b.vars.All() {
			if v.Key.Day == d {
				vars = append(vars, v.Index)
				coeffs = append(coeffs, 1)
			}
		}
		m.Terms = append(m.Terms, Term{
			Kind:   SlackDailyMinimum,
			Name:   fmt.Sprintf("min_staff_short_%s", d),
			Vars:   vars,
			Coeffs: coeffs,
			Target: int64(minStaff),
			Bound:  int64(minStaff),
			Weight: b.catalog.Rules.DailyMinimumWeight,
		})
	}
}

// buildHourDeviation 每名有候选变量的员工的周工时偏差（对称松弛）
func (b *Builder) buildHourDeviation(m *Model) {
	byStaff := make(map[string][]*variable.Variable)
	var order []string
	for _, v := range b.vars.All() {
		if _, ok := byStaff[v.Key.Staff]; !ok {
			order = append(order, v.Key.Staff)
		}
		byStaff[v.Key.Staff] = append(byStaff[v.Key.Staff], v)
	}
	sort.Strings(order)

	target := b.catalog.PreferredHoursScaled()
	for _, id := range order {
		vs := byStaff[id]
		vars := make([]int, len(vs))
		coeffs := make([]int64, len(vs))
		for i, v := range vs {
			vars[i] = v.Index
			coeffs[i] = v.HoursScaled
		}
		m.Terms = append(m.Terms, Term{
			Kind:      SlackHourDeviation,
			Name:      "hour_dev_" + id,
			Vars:      vars,
			Coeffs:    coeffs,
			Target:    target,
			Weight:    b.catalog.Rules.HourDeviationWeight,
			Symmetric: true,
		})
	}
}

// candidates 收集某 (日, 班次) 的候选变量
func (b *Builder) candidates(d model.Day, shiftName string, filter func(*variable.Variable) bool) ([]int, []int64) {
	var vars []int
	var coeffs []int64
	for _, v := range b.vars.All() {
		if v.Key.Day != d || v.Key.Shift != shiftName {
			continue
		}
		if filter != nil && !filter(v) {
			continue
		}
		vars = append(vars, v.Index)
		coeffs = append(coeffs, 1)
	}
	return vars, coeffs
}
