package constraint

import "testing"

// TestTermPenalty 惩罚项计算测试
func TestTermPenalty(t *testing.T) {
	shortfall := &Term{Kind: SlackRoleShortfall, Target: 2, Bound: 2, Weight: 100}

	cases := []struct {
		sum  int64
		want int64
	}{
		{0, 200}, // 缺 2
		{1, 100}, // 缺 1
		{2, 0},   // 达标
		{3, 0},   // 超额不奖励也不惩罚
	}
	for _, c := range cases {
		if got := shortfall.Penalty(c.sum); got != c.want {
			t.Errorf("Penalty(%d) = %d, 期望 %d", c.sum, got, c.want)
		}
	}

	// 松弛量受上界约束
	bounded := &Term{Kind: SlackDailyMinimum, Target: 10, Bound: 3, Weight: 1}
	if got := bounded.Penalty(0); got != 3 {
		t.Errorf("有界松弛 Penalty(0) = %d, 期望 3", got)
	}

	symmetric := &Term{Kind: SlackHourDeviation, Target: 70, Weight: 2, Symmetric: true}
	if got := symmetric.Penalty(60); got != 20 {
		t.Errorf("对称松弛 Penalty(60) = %d, 期望 20", got)
	}
	if got := symmetric.Penalty(80); got != 20 {
		t.Errorf("对称松弛 Penalty(80) = %d, 期望 20", got)
	}
	if got := symmetric.Penalty(70); got != 0 {
		t.Errorf("对称松弛 Penalty(70) = %d, 期望 0", got)
	}
}

// TestTermMinPenalty 剪枝下界的可采纳性测试
func TestTermMinPenalty(t *testing.T) {
	shortfall := &Term{Kind: SlackRoleShortfall, Target: 3, Bound: 3, Weight: 10}

	// 剩余增量足够达标时下界为零
	if got := shortfall.MinPenalty(1, 5); got != 0 {
		t.Errorf("MinPenalty(1,5) = %d, 期望 0", got)
	}
	// 剩余增量不足时下界等于最优完成的惩罚
	if got := shortfall.MinPenalty(1, 1); got != 10 {
		t.Errorf("MinPenalty(1,1) = %d, 期望 10", got)
	}
	if got := shortfall.MinPenalty(0, 0); got != 30 {
		t.Errorf("MinPenalty(0,0) = %d, 期望 30", got)
	}

	symmetric := &Term{Kind: SlackHourDeviation, Target: 70, Weight: 1, Symmetric: true}
	if got := symmetric.MinPenalty(50, 30); got != 0 {
		t.Errorf("目标落在可达区间内, MinPenalty = %d, 期望 0", got)
	}
	if got := symmetric.MinPenalty(50, 10); got != 10 {
		t.Errorf("可达上界低于目标, MinPenalty = %d, 期望 10", got)
	}
	if got := symmetric.MinPenalty(80, 10); got != 10 {
		t.Errorf("候选和已超过目标, MinPenalty = %d, 期望 10", got)
	}

	// 下界不得超过任何可达完成的真实惩罚
	for sum := int64(0); sum <= 4; sum++ {
		for rem := int64(0); rem <= 4; rem++ {
			lb := shortfall.MinPenalty(sum, rem)
			for add := int64(0); add <= rem; add++ {
				if actual := shortfall.Penalty(sum + add); lb > actual {
					t.Fatalf("下界 %d 超过可达惩罚 %d (sum=%d add=%d)", lb, actual, sum, add)
				}
			}
		}
	}
}

// TestModelCheckCaps 硬约束检查测试
func TestModelCheckCaps(t *testing.T) {
	m := &Model{
		NumVars: 3,
		Caps: []Cap{
			{Name: "cap_a", Vars: []int{0, 1}, Coeffs: []int64{1, 1}, Bound: 1},
		},
		Slots: []Slot{
			{Staff: "s1", Day: 0, Options: []int{0, 2}},
		},
	}

	if ok, _ := m.CheckCaps([]bool{true, false, false}); !ok {
		t.Error("未越界的赋值不应违反硬约束")
	}
	if ok, name := m.CheckCaps([]bool{true, true, false}); ok || name != "cap_a" {
		t.Errorf("越界赋值应报 cap_a, 得到 ok=%v name=%s", ok, name)
	}
	if ok, name := m.CheckCaps([]bool{true, false, true}); ok || name != "one_shift_per_day" {
		t.Errorf("同槽位双选应报 one_shift_per_day, 得到 ok=%v name=%s", ok, name)
	}
}

// TestModelObjective 目标函数计算测试
func TestModelObjective(t *testing.T) {
	m := &Model{
		NumVars: 2,
		Terms: []Term{
			{Kind: SlackRoleShortfall, Vars: []int{0, 1}, Coeffs: []int64{1, 1}, Target: 2, Bound: 2, Weight: 100},
			{Kind: SlackHourDeviation, Vars: []int{0}, Coeffs: []int64{8}, Target: 8, Weight: 1, Symmetric: true},
		},
	}

	if got := m.Objective([]bool{false, false}); got != 200+8 {
		t.Errorf("空赋值目标值 = %d, 期望 208", got)
	}
	if got := m.Objective([]bool{true, true}); got != 0 {
		t.Errorf("全选目标值 = %d, 期望 0", got)
	}
}
