// Package constraint 构建排班模型的硬约束与软约束
//
// 硬约束决定可行性，违反即不可行；软约束通过有界松弛变量吸收未达标量，
// 按单位权重计入目标函数。
package constraint

// SlackKind 松弛变量种类标签
type SlackKind string

const (
	SlackManagerCoverage SlackKind = "manager_coverage" // 管理班次缺口
	SlackRoleShortfall   SlackKind = "role_shortfall"   // 岗位人员缺口
	SlackDailyMinimum    SlackKind = "daily_minimum"    // 每日最低人数缺口
	SlackHourDeviation   SlackKind = "hour_deviation"   // 周工时偏差
)

// Cap 硬约束：Σ coeff·x ≤ Bound
type Cap struct {
	Name   string
	Vars   []int
	Coeffs []int64
	Bound  int64
}

// Term 软约束惩罚项
//
// 非对称项的松弛量为 clamp(Target − Σ coeff·x, 0, Bound)；
// 对称项（工时偏差）的松弛量为 |Σ coeff·x − Target|。
// 每单位松弛计 Weight 的惩罚。
type Term struct {
	Kind      SlackKind
	Name      string
	Vars      []int
	Coeffs    []int64
	Target    int64
	Bound     int64
	Weight    int64
	Symmetric bool
}

// Penalty 计算给定候选和下的惩罚值
func (t *Term) Penalty(sum int64) int64 {
	if t.Symmetric {
		dev := sum - t.Target
		if dev < 0 {
			dev = -dev
		}
		return dev * t.Weight
	}
	slack := t.Target - sum
	if slack < 0 {
		slack = 0
	}
	if slack > t.Bound {
		slack = t.Bound
	}
	return slack * t.Weight
}

// MinPenalty 候选和落在 [sum, sum+remaining] 区间内时惩罚的可达下界
// 求解器用它做可采纳的剪枝下界
func (t *Term) MinPenalty(sum, remaining int64) int64 {
	if t.Symmetric {
		lo, hi := sum, sum+remaining
		if t.Target >= lo && t.Target <= hi {
			return 0
		}
		if t.Target < lo {
			return (lo - t.Target) * t.Weight
		}
		return (t.Target - hi) * t.Weight
	}
	return t.Penalty(sum + remaining)
}

// VarRef 变量在某个约束/惩罚项中的出现
type VarRef struct {
	Idx   int // Caps 或 Terms 的下标
	Coeff int64
}

// Model 完整的优化模型：决策变量引用、硬约束、软约束惩罚项
type Model struct {
	NumVars int
	Caps    []Cap
	Terms   []Term

	// 反向索引：变量 → 其出现的约束/惩罚项
	CapsByVar  [][]VarRef
	TermsByVar [][]VarRef

	// Slots 结构性硬约束：每组内的变量至多一个为真（一人一天一班）
	// 按 (日, 员工) 的规范顺序排列
	Slots []Slot
}

// Slot 同一 (员工, 日) 的互斥变量组
type Slot struct {
	Staff   string
	Day     int
	Options []int // 变量下标，按班次名升序
}

// Objective 对完整赋值计算目标函数值（所有惩罚项之和）
// 硬约束只判可行，不参与目标
func (m *Model) Objective(assigned []bool) int64 {
	var total int64
	for i := range m.Terms {
		t := &m.Terms[i]
		var sum int64
		for j, vi := range t.Vars {
			if assigned[vi] {
				sum += t.Coeffs[j]
			}
		}
		total += t.Penalty(sum)
	}
	return total
}

// CheckCaps 检查完整赋值是否满足所有硬约束，返回首个违反的约束名
func (m *Model) CheckCaps(assigned []bool) (bool, string) {
	for i := range m.Caps {
		c := &m.Caps[i]
		var sum int64
		for j, vi := range c.Vars {
			if assigned[vi] {
				sum += c.Coeffs[j]
			}
		}
		if sum > c.Bound {
			return false, c.Name
		}
	}
	for _, slot := range m.Slots {
		n := 0
		for _, vi := range slot.Options {
			if assigned[vi] {
				n++
			}
		}
		if n > 1 {
			return false, "one_shift_per_day"
		}
	}
	return true, ""
}

// buildVarIndex 构建变量反向索引
func (m *Model) buildVarIndex() {
	m.CapsByVar = make([][]VarRef, m.NumVars)
	m.TermsByVar = make([][]VarRef, m.NumVars)
	for ci := range m.Caps {
		c := &m.Caps[ci]
		for j, vi := range c.Vars {
			m.CapsByVar[vi] = append(m.CapsByVar[vi], VarRef{Idx: ci, Coeff: c.Coeffs[j]})
		}
	}
	for ti := range m.Terms {
		t := &m.Terms[ti]
		for j, vi := range t.Vars {
			m.TermsByVar[vi] = append(m.TermsByVar[vi], VarRef{Idx: ti, Coeff: t.Coeffs[j]})
		}
	}
}
