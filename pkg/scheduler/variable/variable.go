// Package variable 生成排班决策变量
//
// 每个 (员工, 日, 班次) 三元组在满足可排条件时对应一个布尔决策变量。
// 不满足条件的组合不生成变量——变量的缺席即是不可行的编码方式，
// 而不是生成变量后再约束为零。
package variable

import (
	"fmt"
	"sort"

	"github.com/paiban/rosterd/pkg/model"
)

// Key 决策变量的复合索引
type Key struct {
	Staff string    `json:"staff"`
	Day   model.Day `json:"day"`
	Shift string    `json:"shift"`
}

// Less 按 (日, 班次名, 员工标识) 的字典序比较，用于确定性排序
func (k Key) Less(other Key) bool {
	if k.Day != other.Day {
		return k.Day < other.Day
	}
	if k.Shift != other.Shift {
		return k.Shift < other.Shift
	}
	return k.Staff < other.Staff
}

// Variable 决策变量及其预计算属性
type Variable struct {
	Index    int
	Key      Key
	Role     model.Role
	Category model.ShiftCategory

	Hours float64
	Rate  float64

	// 缩放后的整数值，供求解器做精确算术
	HoursScaled int64
	RateScaled  int64
	CostScaled  int64 // HoursScaled × RateScaled
}

// Set 决策变量集合：按复合索引寻址的稀疏变量区
type Set struct {
	vars  []*Variable
	byKey map[Key]int
}

// Len 返回变量数量
func (s *Set) Len() int {
	return len(s.vars)
}

// At 按稠密下标取变量
func (s *Set) At(i int) *Variable {
	return s.vars[i]
}

// Lookup 按复合索引取变量（不存在返回 nil）
func (s *Set) Lookup(k Key) *Variable {
	if i, ok := s.byKey[k]; ok {
		return s.vars[i]
	}
	return nil
}

// All 返回全部变量（按生成后的规范顺序）
func (s *Set) All() []*Variable {
	return s.vars
}

// ForStaffDay 返回某员工某天的全部变量
func (s *Set) ForStaffDay(staff string, d model.Day) []*Variable {
	var out []*Variable
	for _, v := range s.vars {
		if v.Key.Staff == staff && v.Key.Day == d {
			out = append(out, v)
		}
	}
	return out
}

// Generator 可排条件判定与变量生成器
type Generator struct {
	catalog *model.Catalog
}

// NewGenerator 创建变量生成器
func NewGenerator(c *model.Catalog) *Generator {
	return &Generator{catalog: c}
}

// Eligible 判定员工某天能否排某班次
//
// 条件：当天有可用时间窗且时间窗完整包含班次时间窗（部分重叠不可排），
// 角色与班次类别匹配；弹性班次另须双岗角色且当天需求等级为 Yellow/Green。
func (g *Generator) Eligible(s *model.Staff, d model.Day, shift *model.ShiftDef) bool {
	w := s.AvailableOn(d)
	if w == nil {
		return false
	}
	if !s.Role.CanWork(shift.Category) {
		return false
	}
	if shift.Category == model.CategoryFlexible {
		tier := g.catalog.TierOn(d)
		if tier != model.TierYellow && tier != model.TierGreen {
			return false
		}
	}
	return w.Contains(shift.Window)
}

// Generate 为全部员工生成决策变量集合
// 员工角色必须已规范化；重复的员工标识是配置错误
func (g *Generator) Generate(staff []*model.Staff) (*Set, error) {
	seen := make(map[string]bool, len(staff))
	for _, s := range staff {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("员工标识重复: %s", s.ID)
		}
		seen[s.ID] = true
	}

	set := &Set{byKey: make(map[Key]int)}
	for _, s := range staff {
		for _, d := range model.Days() {
			for i := range g.catalog.Shifts {
				shift := &g.catalog.Shifts[i]
				if !g.Eligible(s, d, shift) {
					continue
				}
				v := &Variable{
					Key:         Key{Staff: s.ID, Day: d, Shift: shift.Name},
					Role:        s.Role,
					Category:    shift.Category,
					Hours:       shift.Hours,
					Rate:        g.catalog.EffectiveRate(s, d, shift),
					HoursScaled: shift.HoursScaled(),
				}
				v.RateScaled = model.ScaleValue(v.Rate)
				v.CostScaled = v.HoursScaled * v.RateScaled
				set.vars = append(set.vars, v)
			}
		}
	}

	// 规范顺序：(日, 班次名, 员工)，保证重复求解产出一致
	sort.Slice(set.vars, func(i, j int) bool {
		return set.vars[i].Key.Less(set.vars[j].Key)
	})
	for i, v := range set.vars {
		v.Index = i
		set.byKey[v.Key] = i
	}

	return set, nil
}
