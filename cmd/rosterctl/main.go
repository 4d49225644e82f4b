// rosterctl 排班求解命令行工具
// 从 JSON 员工名单一次性求解并输出周排班表

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/paiban/rosterd/internal/catalog"
	"github.com/paiban/rosterd/pkg/logger"
	"github.com/paiban/rosterd/pkg/model"
	"github.com/paiban/rosterd/pkg/roster"
	"github.com/paiban/rosterd/pkg/scheduler/constraint"
	"github.com/paiban/rosterd/pkg/scheduler/solver"
	"github.com/paiban/rosterd/pkg/scheduler/variable"
	"github.com/paiban/rosterd/pkg/stats"
	"github.com/paiban/rosterd/pkg/validator"
)

var (
	staffFile  string
	timeBudget time.Duration
	workers    int
	asJSON     bool
	logLevel   string
)

// staffEntry JSON 名单中的一条员工记录
type staffEntry struct {
	ID           string                       `json:"id"`
	Name         string                       `json:"name"`
	Role         string                       `json:"role"`
	Age          int                          `json:"age"`
	Availability map[string]*staffWindowEntry `json:"availability"`
}

// staffWindowEntry 可用时间窗（十进制小时）
type staffWindowEntry struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func main() {
	root := &cobra.Command{
		Use:   "rosterctl",
		Short: "周排班求解命令行工具",
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "日志级别")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "从员工名单求解一周排班",
		RunE:  runSolve,
	}
	solveCmd.Flags().StringVarP(&staffFile, "staff", "s", "", "员工名单 JSON 文件路径")
	solveCmd.Flags().DurationVar(&timeBudget, "time-budget", 30*time.Second, "求解时间预算")
	solveCmd.Flags().IntVar(&workers, "workers", 0, "并行工作协程数，0 表示按 CPU 数")
	solveCmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出完整结果")
	solveCmd.MarkFlagRequired("staff")
	root.AddCommand(solveCmd)

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "输出内置的排班参数目录",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(catalog.Default())
		},
	}
	root.AddCommand(catalogCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSolve(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Config{Level: logLevel, Format: "console"})

	staff, err := loadStaff(staffFile)
	if err != nil {
		return err
	}

	cat := catalog.Default()
	cat.Rules.SolverTimeBudget = timeBudget
	cat.Rules.SolverWorkers = workers
	if err := cat.Validate(); err != nil {
		return fmt.Errorf("参数目录无效: %w", err)
	}

	vars, err := variable.NewGenerator(cat).Generate(staff)
	if err != nil {
		return err
	}

	m, err := constraint.NewBuilder(cat, vars).Build()
	if err != nil {
		return err
	}

	result, err := solver.New(m, vars, solver.Options{
		TimeBudget: timeBudget,
		Workers:    workers,
	}).Solve(cmd.Context())
	if err != nil {
		return err
	}

	switch result.Status {
	case solver.StatusInfeasible:
		return fmt.Errorf("在成本预算与硬约束下不存在可行排班")
	case solver.StatusUnknown:
		return fmt.Errorf("求解在时间预算 %s 内未完成且无可行解", timeBudget)
	}

	rst, err := roster.NewMaterializer(cat, vars, staff).Materialize(result.Assigned)
	if err != nil {
		return err
	}
	coverage := stats.NewAnalyzer(cat).Analyze(rst)

	if violations := validator.NewChecker(cat, staff).CheckAll(rst); len(violations) > 0 {
		return fmt.Errorf("求解结果未通过硬规则复核: %s", violations[0].Message)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"status":    result.Status,
			"objective": result.Objective,
			"roster":    rst,
			"coverage":  coverage,
		})
	}

	printRoster(rst, coverage, result)
	return nil
}

// loadStaff 读取并转换员工名单
func loadStaff(path string) ([]*model.Staff, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取员工名单失败: %w", err)
	}
	var entries []staffEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("解析员工名单失败: %w", err)
	}

	out := make([]*model.Staff, 0, len(entries))
	for _, e := range entries {
		role, err := model.ParseRole(e.Role)
		if err != nil {
			return nil, fmt.Errorf("员工 %s: %w", e.ID, err)
		}
		s := &model.Staff{ID: e.ID, Name: e.Name, Role: role, Age: e.Age}
		for dayName, win := range e.Availability {
			if win == nil {
				continue
			}
			d, err := model.ParseDay(dayName)
			if err != nil {
				return nil, fmt.Errorf("员工 %s: %w", e.ID, err)
			}
			s.Availability[d] = &model.Window{Start: win.Start, End: win.End}
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// printRoster 以表格形式输出排班结果
func printRoster(rst *model.Roster, coverage *stats.CoverageReport, result *solver.Result) {
	fmt.Printf("求解状态: %s  目标值: %d  节点数: %d  耗时: %s\n\n",
		result.Status, result.Objective, result.Nodes, result.Duration)

	for _, d := range model.Days() {
		assignments := rst.AssignmentsOn(d)
		fmt.Printf("== %s ==\n", d)
		if len(assignments) == 0 {
			fmt.Println("  (无排班)")
			continue
		}
		for i := range assignments {
			a := &assignments[i]
			name := a.StaffName
			if name == "" {
				name = a.StaffID
			}
			fmt.Printf("  %-12s %-14s %s-%s  %.2fh  ¥%.2f\n",
				name, a.Shift, a.StartLabel(), a.EndLabel(), a.Hours, a.Cost)
		}
	}

	fmt.Printf("\n周合计: %.2f 小时, ¥%.2f\n", rst.Week.TotalHours, rst.Week.TotalCost)
	fmt.Printf("覆盖目标满足率: %.1f%%\n", coverage.OverallRate)
	for _, gap := range coverage.Gaps {
		fmt.Printf("  缺口: %s %s %s 需 %d 实排 %d\n", gap.Day, gap.Shift, gap.Class, gap.Required, gap.Assigned)
	}
}
