// Package validator 提供排班表硬规则校验
//
// 求解器内部以整数算术保证硬约束，这里对物化后的排班表做独立复核，
// 供接口层校验外部提交的排班表，也作为求解结果的交叉验证。
package validator

import (
	"fmt"
	"sort"

	"github.com/paiban/rosterd/pkg/model"
)

// ViolationType 违规类型
type ViolationType string

const (
	ViolationDuplicateShift  ViolationType = "duplicate_shift"   // 一人一天多班
	ViolationIneligible      ViolationType = "ineligible"        // 不满足可排条件
	ViolationManagerCap      ViolationType = "manager_cap"       // 店长管理班次超限
	ViolationRelayCap        ViolationType = "relay_cap"         // 轮值店长出勤天数超限
	ViolationCrewHours       ViolationType = "crew_hours"        // 普通员工周工时超限
	ViolationCostCeiling     ViolationType = "cost_ceiling"      // 周成本超预算
	ViolationManagerConflict ViolationType = "manager_conflict"  // 同日同管理班次多人
	ViolationUnknownShift    ViolationType = "unknown_shift"     // 引用未定义班次
	ViolationUnknownStaff    ViolationType = "unknown_staff"     // 引用未知员工
)

// Violation 违规信息
type Violation struct {
	Type    ViolationType `json:"type"`
	StaffID string        `json:"staff_id,omitempty"`
	Day     string        `json:"day,omitempty"`
	Shift   string        `json:"shift,omitempty"`
	Message string        `json:"message"`
}

// Checker 排班表校验器
type Checker struct {
	catalog *model.Catalog
	staff   map[string]*model.Staff
}

// NewChecker 创建校验器
func NewChecker(catalog *model.Catalog, staff []*model.Staff) *Checker {
	byID := make(map[string]*model.Staff, len(staff))
	for _, s := range staff {
		byID[s.ID] = s
	}
	return &Checker{catalog: catalog, staff: byID}
}

// CheckAll 检查排班表的全部硬规则，返回全部违规而非首个
func (c *Checker) CheckAll(r *model.Roster) []Violation {
	var out []Violation
	out = append(out, c.checkEligibility(r)...)
	out = append(out, c.checkDuplicates(r)...)
	out = append(out, c.checkManagerConflicts(r)...)
	out = append(out, c.checkWeeklyCaps(r)...)
	out = append(out, c.checkCostCeiling(r)...)
	return out
}

// checkEligibility 逐条检查可排条件
func (c *Checker) checkEligibility(r *model.Roster) []Violation {
	var out []Violation
	for i := range r.Assignments {
		a := &r.Assignments[i]
		shift := c.catalog.ShiftByName(a.Shift)
		if shift == nil {
			out = append(out, Violation{
				Type:    ViolationUnknownShift,
				StaffID: a.StaffID,
				Day:     a.Day.String(),
				Shift:   a.Shift,
				Message: fmt.Sprintf("班次 %q 未定义", a.Shift),
			})
			continue
		}
		s, ok := c.staff[a.StaffID]
		if !ok {
			out = append(out, Violation{
				Type:    ViolationUnknownStaff,
				StaffID: a.StaffID,
				Day:     a.Day.String(),
				Shift:   a.Shift,
				Message: fmt.Sprintf("员工 %q 不在名单中", a.StaffID),
			})
			continue
		}
		if reason := c.eligibilityReason(s, a.Day, shift); reason != "" {
			out = append(out, Violation{
				Type:    ViolationIneligible,
				StaffID: a.StaffID,
				Day:     a.Day.String(),
				Shift:   a.Shift,
				Message: reason,
			})
		}
	}
	return out
}

// eligibilityReason 返回不可排原因，可排返回空串
func (c *Checker) eligibilityReason(s *model.Staff, d model.Day, shift *model.ShiftDef) string {
	w := s.AvailableOn(d)
	if w == nil {
		return fmt.Sprintf("员工 %s 在 %s 无可用时间", s.ID, d)
	}
	if !w.Contains(shift.Window) {
		return fmt.Sprintf("可用时间 %s-%s 未完整覆盖班次 %s-%s",
			model.FormatHour(w.Start), model.FormatHour(w.End),
			model.FormatHour(shift.Window.Start), model.FormatHour(shift.Window.End))
	}
	if !s.Role.CanWork(shift.Category) {
		return fmt.Sprintf("角色 %s 不能排 %s 类班次", s.Role, shift.Category)
	}
	if shift.Category == model.CategoryFlexible {
		if tier := c.catalog.TierOn(d); tier != model.TierYellow && tier != model.TierGreen {
			return fmt.Sprintf("需求等级 %s 的日子不开放弹性班次", tier)
		}
	}
	return ""
}

// checkDuplicates 一人一天至多一班
func (c *Checker) checkDuplicates(r *model.Roster) []Violation {
	type key struct {
		staff string
		day   model.Day
	}
	seen := make(map[key]int)
	var out []Violation
	for i := range r.Assignments {
		a := &r.Assignments[i]
		k := key{staff: a.StaffID, day: a.Day}
		seen[k]++
		if seen[k] == 2 {
			out = append(out, Violation{
				Type:    ViolationDuplicateShift,
				StaffID: a.StaffID,
				Day:     a.Day.String(),
				Message: fmt.Sprintf("员工 %s 在 %s 被排了多个班次", a.StaffID, a.Day),
			})
		}
	}
	return out
}

// checkManagerConflicts 同一 (日, 管理班次) 至多一人
func (c *Checker) checkManagerConflicts(r *model.Roster) []Violation {
	type key struct {
		day   model.Day
		shift string
	}
	seen := make(map[key]int)
	var out []Violation
	for i := range r.Assignments {
		a := &r.Assignments[i]
		shift := c.catalog.ShiftByName(a.Shift)
		if shift == nil || shift.Category != model.CategoryManager {
			continue
		}
		k := key{day: a.Day, shift: a.Shift}
		seen[k]++
		if seen[k] == 2 {
			out = append(out, Violation{
				Type:    ViolationManagerConflict,
				Day:     a.Day.String(),
				Shift:   a.Shift,
				Message: fmt.Sprintf("%s 的管理班次 %s 排了多名管理者", a.Day, a.Shift),
			})
		}
	}
	return out
}

// checkWeeklyCaps 周上限：管理班次数、出勤天数、工时
func (c *Checker) checkWeeklyCaps(r *model.Roster) []Violation {
	managerShifts := make(map[string]int)
	workDays := make(map[string]map[model.Day]bool)
	hours := make(map[string]float64)

	for i := range r.Assignments {
		a := &r.Assignments[i]
		shift := c.catalog.ShiftByName(a.Shift)
		if shift != nil && shift.Category == model.CategoryManager {
			managerShifts[a.StaffID]++
		}
		if workDays[a.StaffID] == nil {
			workDays[a.StaffID] = make(map[model.Day]bool)
		}
		workDays[a.StaffID][a.Day] = true
		hours[a.StaffID] += a.Hours
	}

	ids := make([]string, 0, len(c.staff))
	for id := range c.staff {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []Violation
	for _, id := range ids {
		s := c.staff[id]
		switch {
		case s.Role == model.RoleManager:
			if n := managerShifts[id]; n > c.catalog.Rules.ManagerShiftCap {
				out = append(out, Violation{
					Type:    ViolationManagerCap,
					StaffID: id,
					Message: fmt.Sprintf("店长 %s 的管理班次数 %d 超过上限 %d", id, n, c.catalog.Rules.ManagerShiftCap),
				})
			}
		case s.Role == model.RoleRelayManager:
			if n := len(workDays[id]); n > c.catalog.Rules.RelayDayCap {
				out = append(out, Violation{
					Type:    ViolationRelayCap,
					StaffID: id,
					Message: fmt.Sprintf("轮值店长 %s 的出勤天数 %d 超过上限 %d", id, n, c.catalog.Rules.RelayDayCap),
				})
			}
		default:
			if h := hours[id]; h > c.catalog.Rules.MaxCrewWeeklyHours+1e-9 {
				out = append(out, Violation{
					Type:    ViolationCrewHours,
					StaffID: id,
					Message: fmt.Sprintf("员工 %s 的周工时 %.2f 超过上限 %.2f", id, h, c.catalog.Rules.MaxCrewWeeklyHours),
				})
			}
		}
	}
	return out
}

// checkCostCeiling 周成本预算
func (c *Checker) checkCostCeiling(r *model.Roster) []Violation {
	var total float64
	for i := range r.Assignments {
		total += r.Assignments[i].Cost
	}
	if total > c.catalog.Rules.MaxWeeklyCost+1e-6 {
		return []Violation{{
			Type:    ViolationCostCeiling,
			Message: fmt.Sprintf("周成本 %.2f 超过预算 %.2f", total, c.catalog.Rules.MaxWeeklyCost),
		}}
	}
	return nil
}
