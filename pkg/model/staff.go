// Package model 定义周排班引擎的核心数据模型
package model

import (
	"fmt"
	"strings"
)

// Role 员工角色
type Role string

const (
	RoleFOH          Role = "FOH"          // 前厅
	RoleBOH          Role = "BOH"          // 后厨
	RoleBoth         Role = "Both"         // 前厅/后厨双岗
	RoleManager      Role = "Manager"      // 店长
	RoleRelayManager Role = "RelayManager" // 轮值店长
)

// roleAliases 历史数据中的常见拼写变体
var roleAliases = map[string]Role{
	"foh":          RoleFOH,
	"boh":          RoleBOH,
	"both":         RoleBoth,
	"manager":      RoleManager,
	"manger":       RoleManager, // 旧表中的拼写错误
	"rm":           RoleRelayManager,
	"relaymanager": RoleRelayManager,
}

// ParseRole 解析并规范化角色标识
// 未识别的角色是致命配置错误，必须在建模前失败
func ParseRole(s string) (Role, error) {
	if r, ok := roleAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return r, nil
	}
	return "", fmt.Errorf("未识别的角色标识: %q", s)
}

// IsManagerial 检查是否为管理岗（仅可排管理班次）
func (r Role) IsManagerial() bool {
	return r == RoleManager || r == RoleRelayManager
}

// CanWork 检查角色是否可排某类班次
func (r Role) CanWork(cat ShiftCategory) bool {
	switch cat {
	case CategoryManager:
		return r.IsManagerial()
	case CategoryCrew:
		return !r.IsManagerial()
	case CategoryFlexible:
		return r == RoleBoth
	default:
		return false
	}
}

// CoversClass 检查角色是否计入某个需求岗位类别
// Both 岗同时计入前厅和后厨的人员需求
func (r Role) CoversClass(class Role) bool {
	switch class {
	case RoleFOH:
		return r == RoleFOH || r == RoleBoth
	case RoleBOH:
		return r == RoleBOH || r == RoleBoth
	case RoleManager:
		return r.IsManagerial()
	default:
		return r == class
	}
}

// Day 星期（0=周一 … 6=周日）
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday

	// NumDays 一周天数
	NumDays = 7
)

var dayNames = [NumDays]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// String 返回三字母英文缩写
func (d Day) String() string {
	if d < 0 || d >= NumDays {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// Valid 检查是否为合法的星期值
func (d Day) Valid() bool {
	return d >= 0 && d < NumDays
}

// ParseDay 解析三字母缩写（兼容旧表中的 Tues/Thus 变体）
func ParseDay(s string) (Day, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mon":
		return Monday, nil
	case "tue", "tues":
		return Tuesday, nil
	case "wed":
		return Wednesday, nil
	case "thu", "thus":
		return Thursday, nil
	case "fri":
		return Friday, nil
	case "sat":
		return Saturday, nil
	case "sun":
		return Sunday, nil
	}
	return 0, fmt.Errorf("未识别的星期标识: %q", s)
}

// Days 按周一到周日的顺序返回所有星期
func Days() [NumDays]Day {
	return [NumDays]Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// Window 可用时间窗（小数小时，半开区间 [Start, End)）
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Valid 检查时间窗是否合法
func (w Window) Valid() bool {
	return w.Start >= 0 && w.End <= 24 && w.Start < w.End
}

// Contains 检查时间窗是否完整包含另一个时间窗
// 部分重叠不构成可排条件
func (w Window) Contains(other Window) bool {
	return w.Start <= other.Start && w.End >= other.End
}

// Hours 返回时间窗长度（小时）
func (w Window) Hours() float64 {
	return w.End - w.Start
}

// Staff 员工：一次求解期间不可变
type Staff struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role Role   `json:"role"`
	Age  int    `json:"age"`

	// Availability 每日可用时间窗，nil 表示当天不可用
	Availability [NumDays]*Window `json:"availability"`
}

// AvailableOn 返回某天的可用时间窗（不可用返回 nil）
func (s *Staff) AvailableOn(d Day) *Window {
	if !d.Valid() {
		return nil
	}
	return s.Availability[d]
}

// Validate 检查员工记录的基本合法性
func (s *Staff) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("员工缺少标识")
	}
	if _, err := ParseRole(string(s.Role)); err != nil {
		return fmt.Errorf("员工 %s: %w", s.ID, err)
	}
	for _, d := range Days() {
		w := s.Availability[d]
		if w != nil && !w.Valid() {
			return fmt.Errorf("员工 %s 在 %s 的可用时间窗无效: %.2f-%.2f", s.ID, d, w.Start, w.End)
		}
	}
	return nil
}

// FormatHour 将小数小时格式化为 HH:MM
func FormatHour(h float64) string {
	hours := int(h)
	mins := int((h - float64(hours)) * 60)
	return fmt.Sprintf("%02d:%02d", hours, mins)
}
