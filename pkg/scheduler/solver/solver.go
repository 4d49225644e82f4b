// Package solver 确定性分支定界求解器
//
// 在 (日, 员工) 槽位序列上做深度优先搜索，每个槽位的分支为
// 「选某个班次」或「当天不排班」。用松弛惩罚项的可达下界剪枝，
// 上限约束在取变量时即时检查。并行模式按根槽位分支切分搜索空间，
// 各工作协程共享当前最优值；当前最优解按全序比较器接纳，
// 因此搜索完整结束时的结果与并行度和调度时序无关。
package solver

import (
	"context"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paiban/rosterd/pkg/logger"
	"github.com/paiban/rosterd/pkg/scheduler/constraint"
	"github.com/paiban/rosterd/pkg/scheduler/variable"
)

// Status 求解结束状态
type Status string

const (
	StatusOptimal    Status = "optimal"    // 搜索完整结束，最优解
	StatusFeasible   Status = "feasible"   // 超时截断，当前最优可行解
	StatusInfeasible Status = "infeasible" // 无可行解
	StatusUnknown    Status = "unknown"    // 超时且未找到可行解
)

// Options 求解参数
type Options struct {
	TimeBudget time.Duration // 零值表示不限时
	Workers    int           // 零值表示按 CPU 数
}

// Result 求解结果
type Result struct {
	Status    Status         `json:"status"`
	Objective int64          `json:"objective"`
	Assigned  []variable.Key `json:"assigned"`
	Nodes     int64          `json:"nodes"`
	Duration  time.Duration  `json:"duration"`
	Complete  bool           `json:"complete"`
}

// Solver 分支定界求解器
type Solver struct {
	model *constraint.Model
	vars  *variable.Set
	opts  Options
	log   *logger.SolverLogger

	// slotContrib[si] 槽位 si 对各惩罚项剩余增量的最大贡献
	slotContrib [][]constraint.VarRef

	inc   incumbent
	nodes atomic.Int64
	stop  atomic.Bool
}

// New 创建求解器
func New(m *constraint.Model, vars *variable.Set, opts Options) *Solver {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Workers > len(m.Slots)+1 {
		opts.Workers = len(m.Slots) + 1
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	s := &Solver{
		model: m,
		vars:  vars,
		opts:  opts,
		log:   logger.NewSolverLogger(),
	}
	s.buildSlotContrib()
	return s
}

// buildSlotContrib 预计算每个槽位对各惩罚项的最大可能贡献
// 槽位内至多取一个变量，取各选项系数的最大值
func (s *Solver) buildSlotContrib() {
	s.slotContrib = make([][]constraint.VarRef, len(s.model.Slots))
	for si, slot := range s.model.Slots {
		maxByTerm := make(map[int]int64)
		for _, vi := range slot.Options {
			for _, ref := range s.model.TermsByVar[vi] {
				if ref.Coeff > maxByTerm[ref.Idx] {
					maxByTerm[ref.Idx] = ref.Coeff
				}
			}
		}
		refs := make([]constraint.VarRef, 0, len(maxByTerm))
		for ti, coeff := range maxByTerm {
			refs = append(refs, constraint.VarRef{Idx: ti, Coeff: coeff})
		}
		sort.Slice(refs, func(i, j int) bool { return refs[i].Idx < refs[j].Idx })
		s.slotContrib[si] = refs
	}
}

// Solve 执行求解
// 截止时间取 ctx 与 TimeBudget 中更早者
func (s *Solver) Solve(ctx context.Context) (*Result, error) {
	start := time.Now()
	if s.opts.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.TimeBudget)
		defer cancel()
	}

	s.log.SolveStart(s.vars.Len(), len(s.model.Caps), len(s.model.Terms), s.opts.Workers)

	if reason, infeasible := s.precheck(); infeasible {
		s.log.SolveDone(string(StatusInfeasible), 0, 0, time.Since(start))
		return &Result{Status: StatusInfeasible, Complete: true, Duration: time.Since(start)}, nil
	} else if reason != "" {
		s.log.Precheck(reason)
	}

	s.inc.best.Store(int64(1)<<62 - 1)

	if s.opts.Workers <= 1 || len(s.model.Slots) == 0 {
		w := s.newWorker()
		w.dfs(ctx, 0)
		w.flush()
	} else {
		s.solveParallel(ctx)
	}

	dur := time.Since(start)
	complete := !s.stop.Load()
	res := &Result{
		Nodes:    s.nodes.Load(),
		Duration: dur,
		Complete: complete,
	}

	s.inc.mu.Lock()
	found := s.inc.found
	res.Objective = s.inc.obj
	res.Assigned = append([]variable.Key(nil), s.inc.keys...)
	s.inc.mu.Unlock()

	switch {
	case found && complete:
		res.Status = StatusOptimal
	case found:
		res.Status = StatusFeasible
	case complete:
		res.Status = StatusInfeasible
	default:
		res.Status = StatusUnknown
	}

	s.log.SolveDone(string(res.Status), res.Objective, res.Nodes, dur)
	return res, nil
}

// precheck 求解前的不可行性判定
//
// 空排班满足全部上限约束，若存在候选变量却连成本最低的单个变量
// 都超出预算，说明预算无法容纳任何排班，直接判不可行，
// 而不是返回一张空排班表。
func (s *Solver) precheck() (string, bool) {
	if s.vars.Len() == 0 {
		return "无候选变量，空排班即最优", false
	}
	budget := s.costBudget()
	if budget < 0 {
		return "", true
	}
	minCost := int64(1)<<62 - 1
	for _, v := range s.vars.All() {
		if v.CostScaled < minCost {
			minCost = v.CostScaled
		}
	}
	if minCost > budget {
		return "", true
	}
	return "", false
}

// costBudget 从成本上限约束中取预算值
func (s *Solver) costBudget() int64 {
	for i := range s.model.Caps {
		if s.model.Caps[i].Name == "weekly_cost_ceiling" {
			return s.model.Caps[i].Bound
		}
	}
	return int64(1)<<62 - 1
}

// solveParallel 按根槽位的分支切分搜索空间
// 根槽位的每个选项（含不排班）各为一个独立子树，由工作池并行搜索
func (s *Solver) solveParallel(ctx context.Context) {
	root := s.model.Slots[0]
	branches := make(chan int, len(root.Options)+1)
	for _, vi := range root.Options {
		branches <- vi
	}
	branches <- -1 // 不排班分支
	close(branches)

	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for vi := range branches {
				w := s.newWorker()
				if vi >= 0 {
					if !w.take(vi) {
						continue
					}
				}
				w.closeSlot(0)
				w.dfs(ctx, 1)
				w.flush()
			}
		}()
	}
	wg.Wait()
}

// incumbent 当前最优解，按 (目标值, 变量键字典序) 全序接纳
type incumbent struct {
	mu    sync.Mutex
	best  atomic.Int64 // 无锁读取的剪枝界
	obj   int64
	keys  []variable.Key
	found bool
}

// offer 尝试用候选解替换当前最优解
func (inc *incumbent) offer(obj int64, keys []variable.Key) bool {
	inc.mu.Lock()
	defer inc.mu.Unlock()
	if inc.found {
		if obj > inc.obj {
			return false
		}
		if obj == inc.obj && !lessKeys(keys, inc.keys) {
			return false
		}
	}
	inc.obj = obj
	inc.keys = append(inc.keys[:0], keys...)
	inc.found = true
	inc.best.Store(obj)
	return true
}

// lessKeys 变量键序列的字典序比较
func lessKeys(a, b []variable.Key) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i].Less(b[i])
		}
	}
	return len(a) < len(b)
}

// worker 单个搜索协程的可变状态
type worker struct {
	s        *Solver
	capSums  []int64
	termSums []int64
	termRem  []int64 // 未决槽位对各惩罚项的最大剩余增量
	chosen   []int
	local    int64 // 本地节点计数，批量汇入全局
}

func (s *Solver) newWorker() *worker {
	w := &worker{
		s:        s,
		capSums:  make([]int64, len(s.model.Caps)),
		termSums: make([]int64, len(s.model.Terms)),
		termRem:  make([]int64, len(s.model.Terms)),
	}
	for si := range s.model.Slots {
		for _, ref := range s.slotContrib[si] {
			w.termRem[ref.Idx] += ref.Coeff
		}
	}
	return w
}

// take 取变量：检查并累加上限约束，累加惩罚项候选和
// 任一上限越界则整体回退并返回 false
func (w *worker) take(vi int) bool {
	m := w.s.model
	for i, ref := range m.CapsByVar[vi] {
		if w.capSums[ref.Idx]+ref.Coeff > m.Caps[ref.Idx].Bound {
			for _, undo := range m.CapsByVar[vi][:i] {
				w.capSums[undo.Idx] -= undo.Coeff
			}
			return false
		}
		w.capSums[ref.Idx] += ref.Coeff
	}
	for _, ref := range m.TermsByVar[vi] {
		w.termSums[ref.Idx] += ref.Coeff
	}
	w.chosen = append(w.chosen, vi)
	return true
}

// flush 将未汇入全局的本地节点计数补齐
func (w *worker) flush() {
	w.s.nodes.Add(w.local % nodeCheckInterval)
}

// untake 回退 take
func (w *worker) untake(vi int) {
	m := w.s.model
	for _, ref := range m.CapsByVar[vi] {
		w.capSums[ref.Idx] -= ref.Coeff
	}
	for _, ref := range m.TermsByVar[vi] {
		w.termSums[ref.Idx] -= ref.Coeff
	}
	w.chosen = w.chosen[:len(w.chosen)-1]
}

// closeSlot 槽位决策完毕，从剩余增量中扣除其最大贡献
func (w *worker) closeSlot(si int) {
	for _, ref := range w.s.slotContrib[si] {
		w.termRem[ref.Idx] -= ref.Coeff
	}
}

// reopenSlot 回退 closeSlot
func (w *worker) reopenSlot(si int) {
	for _, ref := range w.s.slotContrib[si] {
		w.termRem[ref.Idx] += ref.Coeff
	}
}

// lowerBound 当前部分赋值下目标函数的可达下界
func (w *worker) lowerBound() int64 {
	var lb int64
	for ti := range w.s.model.Terms {
		lb += w.s.model.Terms[ti].MinPenalty(w.termSums[ti], w.termRem[ti])
	}
	return lb
}

const nodeCheckInterval = 1024

// dfs 深度优先搜索，si 为下一个待决策槽位
func (w *worker) dfs(ctx context.Context, si int) {
	if w.s.stop.Load() {
		return
	}
	w.local++
	if w.local%nodeCheckInterval == 0 {
		w.s.nodes.Add(nodeCheckInterval)
		select {
		case <-ctx.Done():
			w.s.stop.Store(true)
			return
		default:
		}
	}

	lb := w.lowerBound()
	// 仅剪掉严格劣于当前最优的分支，目标值相等的分支
	// 保留给字典序决胜，保证结果确定
	if lb > w.s.inc.best.Load() {
		return
	}

	if si == len(w.s.model.Slots) {
		w.complete(lb)
		return
	}

	w.closeSlot(si)
	for _, vi := range w.s.model.Slots[si].Options {
		if !w.take(vi) {
			continue
		}
		w.dfs(ctx, si+1)
		w.untake(vi)
	}
	// 当天不排班
	w.dfs(ctx, si+1)
	w.reopenSlot(si)
}

// complete 到达完整赋值：剩余增量为零，下界即目标值
func (w *worker) complete(obj int64) {
	keys := make([]variable.Key, len(w.chosen))
	for i, vi := range w.chosen {
		keys[i] = w.s.vars.At(vi).Key
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	if w.s.inc.offer(obj, keys) {
		w.s.log.Incumbent(obj, w.s.nodes.Load()+w.local%nodeCheckInterval)
	}
}
