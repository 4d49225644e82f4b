// Package catalog 提供内置的排班参数目录
package catalog

import (
	"time"

	"github.com/paiban/rosterd/pkg/model"
)

// Default 返回内置的周排班参数目录
//
// 班次与人员配置对应单店一周的运营节奏：早班 5:30 开门，
// 午后衔接班过渡，晚班营业至 21:30；管理班次分早晚两档。
// 弹性班次只在 Yellow/Green 日开放给双岗员工。
func Default() *model.Catalog {
	return &model.Catalog{
		Shifts: []model.ShiftDef{
			{Name: "ShiftA", Window: model.Window{Start: 5.5, End: 13.5}, Hours: 8, Category: model.CategoryCrew},
			{Name: "ShiftB", Window: model.Window{Start: 7.0, End: 14.0}, Hours: 7, Category: model.CategoryCrew},
			{Name: "ShiftC", Window: model.Window{Start: 16.75, End: 21.5}, Hours: 4.75, Category: model.CategoryCrew},
			{Name: "ShiftD", Window: model.Window{Start: 14.0, End: 21.5}, Hours: 7.5, Category: model.CategoryCrew},
			{Name: "Flex", Window: model.Window{Start: 8.0, End: 13.0}, Hours: 5, Category: model.CategoryFlexible},
			{Name: "Morn_Manager", Window: model.Window{Start: 5.5, End: 13.5}, Hours: 8, Category: model.CategoryManager},
			{Name: "Aft_Manager", Window: model.Window{Start: 13.5, End: 21.5}, Hours: 8, Category: model.CategoryManager},
		},
		Demand: map[model.Day]model.DemandTier{
			model.Monday:    model.TierRed,
			model.Tuesday:   model.TierYellow,
			model.Wednesday: model.TierRed,
			model.Thursday:  model.TierGreen,
			model.Friday:    model.TierRed,
			model.Saturday:  model.TierYellow,
			model.Sunday:    model.TierGreen,
		},
		Staffing: model.StaffingRules{
			model.TierRed: {
				"ShiftA": {model.RoleFOH: 1},
				"ShiftB": {model.RoleFOH: 2, model.RoleBOH: 2},
				"ShiftC": {model.RoleFOH: 2, model.RoleBOH: 1},
				"ShiftD": {model.RoleFOH: 1},
			},
			model.TierYellow: {
				"ShiftA": {model.RoleFOH: 1},
				"ShiftB": {model.RoleFOH: 2, model.RoleBOH: 1},
				"ShiftC": {model.RoleFOH: 2, model.RoleBOH: 1},
				"ShiftD": {model.RoleFOH: 1, model.RoleBOH: 1},
			},
			model.TierGreen: {
				"ShiftA": {model.RoleFOH: 1},
				"ShiftB": {model.RoleFOH: 2, model.RoleBOH: 1},
				"ShiftC": {model.RoleFOH: 2, model.RoleBOH: 1},
				"ShiftD": {model.RoleFOH: 1, model.RoleBOH: 1},
			},
		},
		Pay: model.PayTable{
			CrewByAge: map[int]float64{
				16: 12.00, 17: 12.50, 18: 13.00, 19: 13.50, 20: 14.00,
				21: 15.00, 22: 16.00, 23: 17.00, 24: 18.00, 25: 19.00,
			},
			CrewFallback: 18.00,
			ManagerRate:  30,
			WeekendMultiplier: map[model.Day]float64{
				model.Saturday: 1.2,
				model.Sunday:   1.5,
			},
		},
		Rules: model.Rules{
			MaxWeeklyCost:        20000,
			MaxCrewWeeklyHours:   38,
			ManagerShiftCap:      4,
			RelayDayCap:          5,
			PreferredWeeklyHours: 70,
			MinDailyHeadcount: map[model.DemandTier]int{
				model.TierRed:    14,
				model.TierYellow: 12,
				model.TierGreen:  10,
			},
			ManagerCoverageWeight: 1_000_000,
			RoleShortfallWeight:   10_000,
			DailyMinimumWeight:    5_000,
			HourDeviationWeight:   1,
			SolverTimeBudget:      30 * time.Second,
			SolverWorkers:         0,
		},
	}
}
