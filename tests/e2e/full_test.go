// Package e2e 提供端到端测试
package e2e

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paiban/rosterd/internal/catalog"
	"github.com/paiban/rosterd/internal/config"
	"github.com/paiban/rosterd/internal/handler"
	"github.com/paiban/rosterd/pkg/model"
	"github.com/paiban/rosterd/pkg/validator"
)

// newTestHandler 构造不带持久化的排班处理器
func newTestHandler() *handler.RosterHandler {
	cfg := &config.Config{
		Solver: config.SolverConfig{
			TimeBudget: 10 * time.Second,
			Workers:    2,
		},
	}
	return handler.NewRosterHandler(cfg, catalog.Default(), nil)
}

func postJSON(t *testing.T, h http.HandlerFunc, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("编码请求失败: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// TestSolveEndpoint 完整求解流程：提交名单 → 最优排班响应
func TestSolveEndpoint(t *testing.T) {
	h := newTestHandler()

	payload := map[string]interface{}{
		"staff": []map[string]interface{}{
			{
				"id": "mgr1", "name": "王店长", "role": "Manager", "age": 35,
				"availability": map[string]interface{}{
					"Mon": map[string]float64{"start": 5.5, "end": 13.5},
					"Tue": map[string]float64{"start": 5.5, "end": 13.5},
				},
			},
			{
				"id": "foh1", "name": "张三", "role": "FOH", "age": 20,
				"availability": map[string]interface{}{
					"Mon": map[string]float64{"start": 5.5, "end": 13.5},
				},
			},
		},
	}

	rec := postJSON(t, h.Solve, "/api/v1/roster/solve", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
	}

	var resp handler.SolveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Status != "optimal" {
		t.Fatalf("求解状态 = %s, 期望 optimal", resp.Status)
	}
	if resp.Roster == nil {
		t.Fatal("响应缺少排班表")
	}
	// 店长两天管理班次 + 前厅一天早班
	if got := len(resp.Roster.Assignments); got != 3 {
		t.Fatalf("排班数 = %d, 期望 3", got)
	}
	if resp.Coverage == nil || resp.Coverage.OverallRate <= 0 {
		t.Fatal("响应缺少覆盖统计")
	}
	if resp.Roster.Week.TotalCost <= 0 {
		t.Fatalf("周成本 = %.2f, 应为正", resp.Roster.Week.TotalCost)
	}
}

// TestSolveEndpointInfeasible 预算无法容纳任何排班时返回 422
func TestSolveEndpointInfeasible(t *testing.T) {
	cfg := &config.Config{
		Solver: config.SolverConfig{TimeBudget: 10 * time.Second, Workers: 1},
		Rules:  config.RulesConfig{MaxWeeklyCost: 0.01},
	}
	h := handler.NewRosterHandler(cfg, catalog.Default(), nil)

	payload := map[string]interface{}{
		"staff": []map[string]interface{}{
			{
				"id": "foh1", "role": "FOH", "age": 20,
				"availability": map[string]interface{}{
					"Mon": map[string]float64{"start": 5.5, "end": 13.5},
				},
			},
		},
	}

	rec := postJSON(t, h.Solve, "/api/v1/roster/solve", payload)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("状态码 = %d, 期望 422, 响应: %s", rec.Code, rec.Body.String())
	}
}

// TestSolveEndpointBadInput 输入错误路径
func TestSolveEndpointBadInput(t *testing.T) {
	h := newTestHandler()

	// 空名单
	rec := postJSON(t, h.Solve, "/api/v1/roster/solve", map[string]interface{}{
		"staff": []map[string]interface{}{},
	})
	if rec.Code != http.StatusUnprocessableEntity && rec.Code != http.StatusBadRequest {
		t.Fatalf("空名单状态码 = %d", rec.Code)
	}

	// 未识别角色
	rec = postJSON(t, h.Solve, "/api/v1/roster/solve", map[string]interface{}{
		"staff": []map[string]interface{}{
			{"id": "x", "role": "Chef", "age": 20},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("未识别角色状态码 = %d, 期望 400", rec.Code)
	}

	// 方法不允许
	req := httptest.NewRequest(http.MethodGet, "/api/v1/roster/solve", nil)
	rec2 := httptest.NewRecorder()
	h.Solve(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Fatalf("GET 状态码 = %d, 期望 400", rec2.Code)
	}
}

// TestSolveThenValidateRoundTrip 求解产出的排班表应通过校验接口
func TestSolveThenValidateRoundTrip(t *testing.T) {
	h := newTestHandler()

	staff := []map[string]interface{}{
		{
			"id": "mgr1", "role": "Manager", "age": 35,
			"availability": map[string]interface{}{
				"Mon": map[string]float64{"start": 5.5, "end": 13.5},
			},
		},
		{
			"id": "boh1", "role": "BOH", "age": 23,
			"availability": map[string]interface{}{
				"Mon": map[string]float64{"start": 16, "end": 21.5},
			},
		},
	}

	rec := postJSON(t, h.Solve, "/api/v1/roster/solve", map[string]interface{}{"staff": staff})
	if rec.Code != http.StatusOK {
		t.Fatalf("求解状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
	}
	var solveResp handler.SolveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &solveResp); err != nil {
		t.Fatalf("解析求解响应失败: %v", err)
	}

	rec = postJSON(t, h.Validate, "/api/v1/roster/validate", map[string]interface{}{
		"staff":  staff,
		"roster": solveResp.Roster,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("校验状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
	}
	var valResp handler.ValidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &valResp); err != nil {
		t.Fatalf("解析校验响应失败: %v", err)
	}
	if !valResp.Valid {
		t.Fatalf("求解产出的排班表未通过校验: %+v", valResp.Violations)
	}
}

// TestValidateEndpointViolations 校验接口检出违规排班
func TestValidateEndpointViolations(t *testing.T) {
	h := newTestHandler()

	staff := []map[string]interface{}{
		{
			"id": "foh1", "role": "FOH", "age": 20,
			"availability": map[string]interface{}{
				"Mon": map[string]float64{"start": 5.5, "end": 13.5},
			},
		},
	}
	// 同一天两个班次
	rst := &model.Roster{Assignments: []model.RosterAssignment{
		{StaffID: "foh1", Role: model.RoleFOH, Day: model.Monday, Shift: "ShiftA", Hours: 8, Cost: 112},
		{StaffID: "foh1", Role: model.RoleFOH, Day: model.Monday, Shift: "ShiftB", Hours: 7, Cost: 98},
	}}

	rec := postJSON(t, h.Validate, "/api/v1/roster/validate", map[string]interface{}{
		"staff":  staff,
		"roster": rst,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("校验状态码 = %d, 响应: %s", rec.Code, rec.Body.String())
	}
	var valResp handler.ValidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &valResp); err != nil {
		t.Fatalf("解析校验响应失败: %v", err)
	}
	if valResp.Valid {
		t.Fatal("违规排班表不应通过校验")
	}
	found := false
	for _, v := range valResp.Violations {
		if v.Type == validator.ViolationDuplicateShift {
			found = true
		}
	}
	if !found {
		t.Fatalf("应检出一人一天多班: %+v", valResp.Violations)
	}
}
