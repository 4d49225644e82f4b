package model

import (
	"time"

	"github.com/google/uuid"
)

// RosterAssignment 排班结果记录：仅为求解为真的决策变量生成，只读
type RosterAssignment struct {
	StaffID   string  `json:"staff_id"`
	StaffName string  `json:"staff_name,omitempty"`
	Role      Role    `json:"role"`
	Day       Day     `json:"day"`
	Shift     string  `json:"shift"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Hours     float64 `json:"hours"`
	Rate      float64 `json:"rate"`
	Cost      float64 `json:"cost"`
}

// StartLabel 返回 HH:MM 格式的开始时间
func (a *RosterAssignment) StartLabel() string {
	return FormatHour(a.Start)
}

// EndLabel 返回 HH:MM 格式的结束时间
func (a *RosterAssignment) EndLabel() string {
	return FormatHour(a.End)
}

// DaySummary 单日汇总
type DaySummary struct {
	Day       Day     `json:"day"`
	Headcount int     `json:"headcount"`
	Hours     float64 `json:"hours"`
	Cost      float64 `json:"cost"`
}

// WeekSummary 全周汇总
type WeekSummary struct {
	TotalHours float64 `json:"total_hours"`
	TotalCost  float64 `json:"total_cost"`
}

// Roster 一次求解产出的完整周排班
type Roster struct {
	ID          uuid.UUID          `json:"id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Assignments []RosterAssignment `json:"assignments"`
	Days        []DaySummary       `json:"days"`
	Week        WeekSummary        `json:"week"`
}

// AssignmentsOn 返回某天的所有排班记录
func (r *Roster) AssignmentsOn(d Day) []RosterAssignment {
	var out []RosterAssignment
	for _, a := range r.Assignments {
		if a.Day == d {
			out = append(out, a)
		}
	}
	return out
}
