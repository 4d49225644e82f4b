// Package repository 提供数据访问层
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paiban/rosterd/internal/database"
	"github.com/paiban/rosterd/pkg/model"
)

// RosterPlan 一次求解的持久化记录
type RosterPlan struct {
	ID          uuid.UUID `json:"id"`
	Status      string    `json:"status"` // optimal/feasible
	Objective   int64     `json:"objective"`
	TotalHours  float64   `json:"total_hours"`
	TotalCost   float64   `json:"total_cost"`
	SolveNodes  int64     `json:"solve_nodes"`
	SolveMillis int64     `json:"solve_ms"`
	GeneratedAt time.Time `json:"generated_at"`
}

// RosterRepositoryInterface 排班结果仓储接口
type RosterRepositoryInterface interface {
	Save(ctx context.Context, plan *RosterPlan, roster *model.Roster) error
	GetPlan(ctx context.Context, id uuid.UUID) (*RosterPlan, error)
	GetAssignments(ctx context.Context, planID uuid.UUID) ([]model.RosterAssignment, error)
	LatestPlan(ctx context.Context) (*RosterPlan, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RosterRepository 排班结果仓储实现
type RosterRepository struct {
	db *database.DB
}

// NewRosterRepository 创建排班结果仓储
func NewRosterRepository(db *database.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// Save 在单个事务中写入排班计划及其全部分配记录
func (r *RosterRepository) Save(ctx context.Context, plan *RosterPlan, roster *model.Roster) error {
	return r.db.Transaction(ctx, func(tx *sql.Tx) error {
		const planQuery = `
			INSERT INTO roster_plans (
				id, status, objective, total_hours, total_cost,
				solve_nodes, solve_ms, generated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		if _, err := tx.ExecContext(ctx, planQuery,
			plan.ID, plan.Status, plan.Objective, plan.TotalHours, plan.TotalCost,
			plan.SolveNodes, plan.SolveMillis, plan.GeneratedAt,
		); err != nil {
			return fmt.Errorf("写入排班计划失败: %w", err)
		}

		const assignQuery = `
			INSERT INTO roster_assignments (
				plan_id, staff_id, staff_name, role, day, shift,
				start_hour, end_hour, hours, rate, cost
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		for i := range roster.Assignments {
			a := &roster.Assignments[i]
			if _, err := tx.ExecContext(ctx, assignQuery,
				plan.ID, a.StaffID, a.StaffName, string(a.Role), int(a.Day), a.Shift,
				a.Start, a.End, a.Hours, a.Rate, a.Cost,
			); err != nil {
				return fmt.Errorf("写入排班记录失败 (%s/%s): %w", a.StaffID, a.Day, err)
			}
		}
		return nil
	})
}

// GetPlan 按ID查询排班计划
func (r *RosterRepository) GetPlan(ctx context.Context, id uuid.UUID) (*RosterPlan, error) {
	const query = `
		SELECT id, status, objective, total_hours, total_cost,
			solve_nodes, solve_ms, generated_at
		FROM roster_plans WHERE id = $1
	`
	return scanPlan(r.db.QueryRowContext(ctx, query, id))
}

// LatestPlan 查询最近生成的排班计划
func (r *RosterRepository) LatestPlan(ctx context.Context) (*RosterPlan, error) {
	const query = `
		SELECT id, status, objective, total_hours, total_cost,
			solve_nodes, solve_ms, generated_at
		FROM roster_plans ORDER BY generated_at DESC LIMIT 1
	`
	return scanPlan(r.db.QueryRowContext(ctx, query))
}

// GetAssignments 查询某计划的全部排班记录，按 (日, 开始时间, 员工) 排序
func (r *RosterRepository) GetAssignments(ctx context.Context, planID uuid.UUID) ([]model.RosterAssignment, error) {
	const query = `
		SELECT staff_id, staff_name, role, day, shift,
			start_hour, end_hour, hours, rate, cost
		FROM roster_assignments
		WHERE plan_id = $1
		ORDER BY day, start_hour, staff_id
	`
	rows, err := r.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("查询排班记录失败: %w", err)
	}
	defer rows.Close()

	var out []model.RosterAssignment
	for rows.Next() {
		var a model.RosterAssignment
		var role string
		var day int
		if err := rows.Scan(
			&a.StaffID, &a.StaffName, &role, &day, &a.Shift,
			&a.Start, &a.End, &a.Hours, &a.Rate, &a.Cost,
		); err != nil {
			return nil, fmt.Errorf("扫描排班记录失败: %w", err)
		}
		a.Role = model.Role(role)
		a.Day = model.Day(day)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Delete 删除排班计划（级联删除其排班记录）
func (r *RosterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM roster_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("删除排班计划失败: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// scanPlan 从单行结果扫描排班计划
func scanPlan(row Scanner) (*RosterPlan, error) {
	var p RosterPlan
	err := row.Scan(
		&p.ID, &p.Status, &p.Objective, &p.TotalHours, &p.TotalCost,
		&p.SolveNodes, &p.SolveMillis, &p.GeneratedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("扫描排班计划失败: %w", err)
	}
	return &p, nil
}
