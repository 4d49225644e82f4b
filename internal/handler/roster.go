// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	playground "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/paiban/rosterd/internal/config"
	"github.com/paiban/rosterd/internal/metrics"
	"github.com/paiban/rosterd/internal/repository"
	"github.com/paiban/rosterd/pkg/errors"
	"github.com/paiban/rosterd/pkg/logger"
	"github.com/paiban/rosterd/pkg/model"
	"github.com/paiban/rosterd/pkg/roster"
	"github.com/paiban/rosterd/pkg/scheduler/constraint"
	"github.com/paiban/rosterd/pkg/scheduler/solver"
	"github.com/paiban/rosterd/pkg/scheduler/variable"
	"github.com/paiban/rosterd/pkg/stats"
	"github.com/paiban/rosterd/pkg/validator"
)

// RosterHandler 排班处理器
type RosterHandler struct {
	cfg      *config.Config
	catalog  *model.Catalog
	repo     repository.RosterRepositoryInterface // 可为空，为空时不持久化
	validate *playground.Validate
}

// NewRosterHandler 创建排班处理器
func NewRosterHandler(cfg *config.Config, catalog *model.Catalog, repo repository.RosterRepositoryInterface) *RosterHandler {
	return &RosterHandler{
		cfg:      cfg,
		catalog:  catalog,
		repo:     repo,
		validate: playground.New(),
	}
}

// StaffInput 员工输入
type StaffInput struct {
	ID           string                  `json:"id" validate:"required"`
	Name         string                  `json:"name"`
	Role         string                  `json:"role" validate:"required"`
	Age          int                     `json:"age" validate:"gte=0,lte=120"`
	Availability map[string]*WindowInput `json:"availability"`
}

// WindowInput 可用时间窗输入（十进制小时）
type WindowInput struct {
	Start float64 `json:"start" validate:"gte=0,lte=24"`
	End   float64 `json:"end" validate:"gte=0,lte=24"`
}

// SolveRequest 排班求解请求
type SolveRequest struct {
	Staff   []StaffInput  `json:"staff" validate:"required,min=1,dive"`
	Options *SolveOptions `json:"options,omitempty"`
}

// SolveOptions 求解选项
type SolveOptions struct {
	TimeBudgetSeconds int `json:"time_budget_seconds,omitempty" validate:"omitempty,gte=1,lte=600"`
	Workers           int `json:"workers,omitempty" validate:"omitempty,gte=1,lte=64"`
}

// SolveResponse 排班求解响应
type SolveResponse struct {
	Status    string                `json:"status"`
	Objective int64                 `json:"objective"`
	Roster    *model.Roster         `json:"roster,omitempty"`
	Coverage  *stats.CoverageReport `json:"coverage,omitempty"`
	Nodes     int64                 `json:"nodes"`
	Duration  string                `json:"duration"`
}

// Solve 求解一周排班
func (h *RosterHandler) Solve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeValidationFail, "请求验证失败"))
		return
	}

	staff, appErr := buildStaff(req.Staff)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	catalog := h.solveCatalog(req.Options)
	if err := catalog.Validate(); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidCatalog, "参数目录无效"))
		return
	}

	vars, err := variable.NewGenerator(catalog).Generate(staff)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "生成决策变量失败"))
		return
	}

	m, err := constraint.NewBuilder(catalog, vars).Build()
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidCatalog, "构建模型失败"))
		return
	}

	result, err := solver.New(m, vars, solver.Options{
		TimeBudget: catalog.Rules.SolverTimeBudget,
		Workers:    catalog.Rules.SolverWorkers,
	}).Solve(r.Context())
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInternal, "求解失败"))
		return
	}

	metrics.RecordSolve(string(result.Status), result.Duration, result.Nodes, result.Objective)

	switch result.Status {
	case solver.StatusInfeasible:
		respondError(w, errors.NoFeasibleSolution("在成本预算与硬约束下不存在可行排班"))
		return
	case solver.StatusUnknown:
		respondError(w, errors.SolverTimeout(catalog.Rules.SolverTimeBudget.String()))
		return
	}

	rst, err := roster.NewMaterializer(catalog, vars, staff).Materialize(result.Assigned)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInternal, "物化排班表失败"))
		return
	}

	coverage := stats.NewAnalyzer(catalog).Analyze(rst)
	metrics.RecordRoster(coverage.OverallRate, rst.Week.TotalCost)

	h.persist(r, result, rst)

	respondJSON(w, http.StatusOK, &SolveResponse{
		Status:    string(result.Status),
		Objective: result.Objective,
		Roster:    rst,
		Coverage:  coverage,
		Nodes:     result.Nodes,
		Duration:  result.Duration.String(),
	})
}

// solveCatalog 按配置与请求选项派生本次求解用的参数目录
func (h *RosterHandler) solveCatalog(opts *SolveOptions) *model.Catalog {
	c := *h.catalog

	rules := h.cfg.Rules
	if rules.MaxWeeklyCost > 0 {
		c.Rules.MaxWeeklyCost = rules.MaxWeeklyCost
	}
	if rules.MaxCrewWeeklyHours > 0 {
		c.Rules.MaxCrewWeeklyHours = rules.MaxCrewWeeklyHours
	}
	if rules.ManagerShiftCap > 0 {
		c.Rules.ManagerShiftCap = rules.ManagerShiftCap
	}
	if rules.RelayDayCap > 0 {
		c.Rules.RelayDayCap = rules.RelayDayCap
	}
	if rules.PreferredWeeklyHours > 0 {
		c.Rules.PreferredWeeklyHours = rules.PreferredWeeklyHours
	}

	c.Rules.SolverTimeBudget = h.cfg.Solver.TimeBudget
	c.Rules.SolverWorkers = h.cfg.Solver.Workers
	if opts != nil {
		if opts.TimeBudgetSeconds > 0 {
			c.Rules.SolverTimeBudget = time.Duration(opts.TimeBudgetSeconds) * time.Second
		}
		if opts.Workers > 0 {
			c.Rules.SolverWorkers = opts.Workers
		}
	}
	return &c
}

// persist 持久化求解结果，失败只记日志不影响响应
func (h *RosterHandler) persist(r *http.Request, result *solver.Result, rst *model.Roster) {
	if h.repo == nil {
		return
	}
	plan := &repository.RosterPlan{
		ID:          rst.ID,
		Status:      string(result.Status),
		Objective:   result.Objective,
		TotalHours:  rst.Week.TotalHours,
		TotalCost:   rst.Week.TotalCost,
		SolveNodes:  result.Nodes,
		SolveMillis: result.Duration.Milliseconds(),
		GeneratedAt: rst.GeneratedAt,
	}
	if err := h.repo.Save(r.Context(), plan, rst); err != nil {
		logger.WithError(err).Str("plan_id", plan.ID.String()).Msg("持久化排班计划失败")
	}
}

// ValidateRequest 排班校验请求
type ValidateRequest struct {
	Staff  []StaffInput  `json:"staff" validate:"required,min=1,dive"`
	Roster *model.Roster `json:"roster" validate:"required"`
}

// ValidateResponse 排班校验响应
type ValidateResponse struct {
	Valid      bool                  `json:"valid"`
	Violations []validator.Violation `json:"violations,omitempty"`
}

// Validate 校验外部提交的排班表是否满足硬规则
func (h *RosterHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeValidationFail, "请求验证失败"))
		return
	}

	staff, appErr := buildStaff(req.Staff)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	violations := validator.NewChecker(h.catalog, staff).CheckAll(req.Roster)
	respondJSON(w, http.StatusOK, &ValidateResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
	})
}

// GetPlan 查询历史排班计划
func (h *RosterHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}
	if h.repo == nil {
		respondError(w, errors.New(errors.CodeNotFound, "未启用持久化"))
		return
	}

	var plan *repository.RosterPlan
	var err error
	if idParam := r.URL.Query().Get("id"); idParam != "" {
		id, parseErr := uuid.Parse(idParam)
		if parseErr != nil {
			respondError(w, errors.Wrap(parseErr, errors.CodeInvalidInput, "无效的计划ID格式"))
			return
		}
		plan, err = h.repo.GetPlan(r.Context(), id)
	} else {
		plan, err = h.repo.LatestPlan(r.Context())
	}
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeNotFound, "排班计划不存在"))
		return
	}

	assignments, err := h.repo.GetAssignments(r.Context(), plan.ID)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询排班记录失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"plan":        plan,
		"assignments": assignments,
	})
}

// buildStaff 将输入转换为领域员工对象
func buildStaff(inputs []StaffInput) ([]*model.Staff, *errors.AppError) {
	out := make([]*model.Staff, 0, len(inputs))
	for _, in := range inputs {
		role, err := model.ParseRole(in.Role)
		if err != nil {
			return nil, errors.InvalidRole(in.Role)
		}
		s := &model.Staff{
			ID:   in.ID,
			Name: in.Name,
			Role: role,
			Age:  in.Age,
		}
		for dayName, win := range in.Availability {
			if win == nil {
				continue
			}
			d, err := model.ParseDay(dayName)
			if err != nil {
				return nil, errors.InvalidInput("availability", err.Error())
			}
			s.Availability[d] = &model.Window{Start: win.Start, End: win.End}
		}
		if err := s.Validate(); err != nil {
			return nil, errors.InvalidInput("staff", err.Error())
		}
		out = append(out, s)
	}
	return out, nil
}

// respondJSON 输出JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 输出错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	})
}
