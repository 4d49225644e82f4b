// Package roster 将求解结果物化为只读的周排班表
package roster

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/rosterd/pkg/model"
	"github.com/paiban/rosterd/pkg/scheduler/variable"
)

// Materializer 排班表物化器
type Materializer struct {
	catalog *model.Catalog
	vars    *variable.Set
	names   map[string]string
}

// NewMaterializer 创建物化器
// 员工列表仅用于补充姓名展示字段
func NewMaterializer(catalog *model.Catalog, vars *variable.Set, staff []*model.Staff) *Materializer {
	names := make(map[string]string, len(staff))
	for _, s := range staff {
		names[s.ID] = s.Name
	}
	return &Materializer{catalog: catalog, vars: vars, names: names}
}

// Materialize 将选中的变量键集合转换为完整排班表
//
// 记录按 (日, 班次开始时间, 员工标识) 排序；
// 汇总金额由各记录的精确小数值累加，再做一次两位小数归整。
func (m *Materializer) Materialize(keys []variable.Key) (*model.Roster, error) {
	r := &model.Roster{
		ID:          uuid.New(),
		GeneratedAt: time.Now().UTC(),
		Assignments: make([]model.RosterAssignment, 0, len(keys)),
	}

	for _, k := range keys {
		v := m.vars.Lookup(k)
		if v == nil {
			return nil, fmt.Errorf("求解结果引用了不存在的变量: %s/%s/%s", k.Staff, k.Day, k.Shift)
		}
		shift := m.catalog.ShiftByName(k.Shift)
		if shift == nil {
			return nil, fmt.Errorf("求解结果引用了未定义的班次: %s", k.Shift)
		}
		r.Assignments = append(r.Assignments, model.RosterAssignment{
			StaffID:   k.Staff,
			StaffName: m.names[k.Staff],
			Role:      v.Role,
			Day:       k.Day,
			Shift:     k.Shift,
			Start:     shift.Window.Start,
			End:       shift.Window.End,
			Hours:     v.Hours,
			Rate:      v.Rate,
			Cost:      round2(v.Hours * v.Rate),
		})
	}

	sort.Slice(r.Assignments, func(i, j int) bool {
		a, b := &r.Assignments[i], &r.Assignments[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.StaffID < b.StaffID
	})

	m.summarize(r)
	return r, nil
}

// summarize 计算单日与全周汇总
func (m *Materializer) summarize(r *model.Roster) {
	for _, d := range model.Days() {
		ds := model.DaySummary{Day: d}
		for i := range r.Assignments {
			a := &r.Assignments[i]
			if a.Day != d {
				continue
			}
			ds.Headcount++
			ds.Hours += a.Hours
			ds.Cost += a.Cost
		}
		ds.Cost = round2(ds.Cost)
		r.Days = append(r.Days, ds)
		r.Week.TotalHours += ds.Hours
		r.Week.TotalCost += ds.Cost
	}
	r.Week.TotalCost = round2(r.Week.TotalCost)
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
