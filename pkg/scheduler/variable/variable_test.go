package variable

import (
	"testing"

	"github.com/paiban/rosterd/internal/catalog"
	"github.com/paiban/rosterd/pkg/model"
)

// allWeek 返回整周相同时间窗的可用配置
func allWeek(start, end float64) [model.NumDays]*model.Window {
	var a [model.NumDays]*model.Window
	for _, d := range model.Days() {
		a[d] = &model.Window{Start: start, End: end}
	}
	return a
}

// TestEligible 可排条件判定测试
func TestEligible(t *testing.T) {
	cat := catalog.Default()
	g := NewGenerator(cat)

	shiftA := cat.ShiftByName("ShiftA")        // 5.5-13.5 普通班
	mornMgr := cat.ShiftByName("Morn_Manager") // 5.5-13.5 管理班
	flex := cat.ShiftByName("Flex")            // 8-13 弹性班

	foh := &model.Staff{ID: "foh", Role: model.RoleFOH, Age: 20, Availability: allWeek(5.5, 14)}
	mgr := &model.Staff{ID: "mgr", Role: model.RoleManager, Age: 35, Availability: allWeek(5, 22)}
	both := &model.Staff{ID: "both", Role: model.RoleBoth, Age: 21, Availability: allWeek(8, 13)}

	cases := []struct {
		name  string
		staff *model.Staff
		day   model.Day
		shift *model.ShiftDef
		want  bool
	}{
		{"前厅员工可排普通班", foh, model.Monday, shiftA, true},
		{"前厅员工不可排管理班", foh, model.Monday, mornMgr, false},
		{"店长可排管理班", mgr, model.Monday, mornMgr, true},
		{"店长不可排普通班", mgr, model.Monday, shiftA, false},
		{"时间窗不完整覆盖不可排", both, model.Monday, shiftA, false},
		{"弹性班在Red日不开放", both, model.Monday, flex, false},   // Mon=Red
		{"弹性班在Yellow日开放", both, model.Tuesday, flex, true}, // Tue=Yellow
		{"弹性班在Green日开放", both, model.Thursday, flex, true}, // Thu=Green
		{"前厅员工不可排弹性班", foh, model.Tuesday, flex, false},
	}

	for _, c := range cases {
		if got := g.Eligible(c.staff, c.day, c.shift); got != c.want {
			t.Errorf("%s: Eligible = %v, 期望 %v", c.name, got, c.want)
		}
	}

	// 当天无可用时间
	unavailable := &model.Staff{ID: "u", Role: model.RoleFOH, Age: 20}
	if g.Eligible(unavailable, model.Monday, shiftA) {
		t.Error("无可用时间的员工不应可排")
	}
}

// TestGenerateFlexOnly 仅能上弹性班的双岗员工只生成弹性变量
func TestGenerateFlexOnly(t *testing.T) {
	cat := catalog.Default()

	s := &model.Staff{ID: "b1", Role: model.RoleBoth, Age: 22}
	s.Availability[model.Thursday] = &model.Window{Start: 8, End: 13} // Thu=Green

	set, err := NewGenerator(cat).Generate([]*model.Staff{s})
	if err != nil {
		t.Fatalf("生成变量失败: %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("变量数 = %d, 期望 1", set.Len())
	}
	v := set.At(0)
	if v.Key.Shift != "Flex" || v.Key.Day != model.Thursday {
		t.Errorf("变量 = %+v, 期望 Thu/Flex", v.Key)
	}
	if v.Category != model.CategoryFlexible {
		t.Errorf("类别 = %s, 期望 flexible", v.Category)
	}
}

// TestGenerateCanonicalOrder 变量按 (日, 班次名, 员工) 规范排序
func TestGenerateCanonicalOrder(t *testing.T) {
	cat := catalog.Default()

	a := &model.Staff{ID: "a", Role: model.RoleFOH, Age: 20, Availability: allWeek(5.5, 21.5)}
	b := &model.Staff{ID: "b", Role: model.RoleFOH, Age: 20, Availability: allWeek(5.5, 21.5)}

	// 输入顺序不影响输出顺序
	set1, err := NewGenerator(cat).Generate([]*model.Staff{a, b})
	if err != nil {
		t.Fatalf("生成变量失败: %v", err)
	}
	set2, err := NewGenerator(cat).Generate([]*model.Staff{b, a})
	if err != nil {
		t.Fatalf("生成变量失败: %v", err)
	}
	if set1.Len() != set2.Len() {
		t.Fatalf("两次生成变量数不同: %d vs %d", set1.Len(), set2.Len())
	}
	for i := 0; i < set1.Len(); i++ {
		if set1.At(i).Key != set2.At(i).Key {
			t.Fatalf("第 %d 个变量不一致: %+v vs %+v", i, set1.At(i).Key, set2.At(i).Key)
		}
	}
	for i := 1; i < set1.Len(); i++ {
		if !set1.At(i-1).Key.Less(set1.At(i).Key) {
			t.Fatalf("变量未按规范顺序排列: %+v >= %+v", set1.At(i-1).Key, set1.At(i).Key)
		}
	}
}

// TestGenerateDuplicateID 重复员工标识是配置错误
func TestGenerateDuplicateID(t *testing.T) {
	cat := catalog.Default()
	a := &model.Staff{ID: "dup", Role: model.RoleFOH, Age: 20}
	b := &model.Staff{ID: "dup", Role: model.RoleBOH, Age: 21}

	if _, err := NewGenerator(cat).Generate([]*model.Staff{a, b}); err == nil {
		t.Fatal("重复员工标识应当报错")
	}
}

// TestVariableCost 变量成本预计算测试
func TestVariableCost(t *testing.T) {
	cat := catalog.Default()
	s := &model.Staff{ID: "c1", Role: model.RoleFOH, Age: 20} // 时薪 14.00
	s.Availability[model.Monday] = &model.Window{Start: 5.5, End: 13.5}

	set, err := NewGenerator(cat).Generate([]*model.Staff{s})
	if err != nil {
		t.Fatalf("生成变量失败: %v", err)
	}

	v := set.Lookup(Key{Staff: "c1", Day: model.Monday, Shift: "ShiftA"})
	if v == nil {
		t.Fatal("缺少 Mon/ShiftA 变量")
	}
	if v.HoursScaled != 8000 {
		t.Errorf("HoursScaled = %d, 期望 8000", v.HoursScaled)
	}
	if v.RateScaled != 14000 {
		t.Errorf("RateScaled = %d, 期望 14000", v.RateScaled)
	}
	if v.CostScaled != 8000*14000 {
		t.Errorf("CostScaled = %d, 期望 %d", v.CostScaled, int64(8000*14000))
	}
}
