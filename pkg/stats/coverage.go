// Package stats 提供排班表的覆盖统计分析
package stats

import (
	"sort"

	"github.com/paiban/rosterd/pkg/model"
)

// CoverageReport 覆盖报告
type CoverageReport struct {
	OverallRate float64       `json:"overall_rate"` // 目标满足率 (%)
	Days        []DayCoverage `json:"days"`
	Gaps        []CoverageGap `json:"gaps,omitempty"` // 未满足的覆盖目标
}

// DayCoverage 单日覆盖情况
type DayCoverage struct {
	Day       model.Day        `json:"day"`
	Tier      model.DemandTier `json:"tier"`
	Required  int              `json:"required"`
	Assigned  int              `json:"assigned"`
	Rate      float64          `json:"rate"`
	Headcount int              `json:"headcount"`
	Hours     float64          `json:"hours"`
}

// CoverageGap 某 (日, 班次, 岗位类别) 的覆盖缺口
type CoverageGap struct {
	Day      model.Day  `json:"day"`
	Shift    string     `json:"shift"`
	Class    model.Role `json:"class"`
	Required int        `json:"required"`
	Assigned int        `json:"assigned"`
}

// Analyzer 覆盖分析器
type Analyzer struct {
	catalog *model.Catalog
}

// NewAnalyzer 创建覆盖分析器
func NewAnalyzer(catalog *model.Catalog) *Analyzer {
	return &Analyzer{catalog: catalog}
}

// Analyze 对照人员配置目标统计排班表的覆盖情况
//
// 每个 (日, 班次, 岗位类别) 的目标人数来自需求等级对应的人员配置，
// 实际人数按岗位类别可覆盖关系计数（双岗员工同时计入前厅与后厨目标）。
func (a *Analyzer) Analyze(r *model.Roster) *CoverageReport {
	report := &CoverageReport{}
	var totalRequired, totalMet int

	for _, d := range model.Days() {
		tier := a.catalog.TierOn(d)
		dc := DayCoverage{Day: d, Tier: tier}

		assigned := r.AssignmentsOn(d)
		dc.Headcount = len(assigned)
		for i := range assigned {
			dc.Hours += assigned[i].Hours
		}

		byShift := a.catalog.Staffing[tier]
		for i := range a.catalog.Shifts {
			shift := &a.catalog.Shifts[i]
			byClass, ok := byShift[shift.Name]
			if !ok {
				continue
			}
			classes := make([]model.Role, 0, len(byClass))
			for class := range byClass {
				classes = append(classes, class)
			}
			sort.Slice(classes, func(x, y int) bool { return classes[x] < classes[y] })

			for _, class := range classes {
				required := byClass[class]
				if required <= 0 {
					continue
				}
				n := countCovering(assigned, shift.Name, class)
				met := n
				if met > required {
					met = required
				}
				dc.Required += required
				dc.Assigned += met
				totalRequired += required
				totalMet += met
				if n < required {
					report.Gaps = append(report.Gaps, CoverageGap{
						Day:      d,
						Shift:    shift.Name,
						Class:    class,
						Required: required,
						Assigned: n,
					})
				}
			}
		}

		if dc.Required > 0 {
			dc.Rate = 100 * float64(dc.Assigned) / float64(dc.Required)
		} else {
			dc.Rate = 100
		}
		report.Days = append(report.Days, dc)
	}

	if totalRequired > 0 {
		report.OverallRate = 100 * float64(totalMet) / float64(totalRequired)
	} else {
		report.OverallRate = 100
	}
	return report
}

// countCovering 统计某班次上岗位类别可覆盖的排班人数
func countCovering(assigned []model.RosterAssignment, shiftName string, class model.Role) int {
	n := 0
	for i := range assigned {
		a := &assigned[i]
		if a.Shift == shiftName && a.Role.CoversClass(class) {
			n++
		}
	}
	return n
}
