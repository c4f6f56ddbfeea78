package solver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Options bound a GreedySolver run. Workers is a parallelism hint: the
// solver launches that many search passes with rotated candidate orderings
// and keeps the best result; the pick is deterministic regardless of
// goroutine scheduling.
type Options struct {
	TimeLimit time.Duration
	Workers   int
}

// GreedySolver is the default in-process backend: equality classes are
// collapsed up front, then each pass greedily raises variable groups in
// descending objective order and a local exchange step repairs missed
// opportunities. It is exact on models whose constraints are all
// upper bounds with unit coefficients — the shape the paper placement
// phase emits — and a well-defined heuristic otherwise.
type GreedySolver struct {
	opts Options
}

// NewGreedySolver builds a solver with the given options.
func NewGreedySolver(opts Options) *GreedySolver {
	if opts.TimeLimit <= 0 {
		opts.TimeLimit = 2 * time.Minute
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &GreedySolver{opts: opts}
}

type varGroup struct {
	id      int
	members []Var
	coef    int // aggregated objective coefficient
	fixed   bool
	value   int
}

// Solve implements the Solver interface.
func (s *GreedySolver) Solve(ctx context.Context, m *Model) (*Solution, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.TimeLimit)
	defer cancel()

	groups, groupOf, err := buildGroups(m)
	if err != nil {
		return &Solution{Status: StatusInfeasible}, err
	}

	type passResult struct {
		pass      int
		objective int
		values    []int
		err       error
	}

	results := make([]passResult, s.opts.Workers)
	var wg sync.WaitGroup
	for pass := 0; pass < s.opts.Workers; pass++ {
		wg.Add(1)
		go func(pass int) {
			defer wg.Done()
			values, obj, err := s.runPass(ctx, m, groups, groupOf, pass)
			results[pass] = passResult{pass: pass, objective: obj, values: values, err: err}
		}(pass)
	}
	wg.Wait()

	best := -1
	for i, r := range results {
		if r.err != nil {
			continue
		}
		if best < 0 || r.objective > results[best].objective {
			best = i
		}
	}
	if best < 0 {
		if ctx.Err() != nil {
			return &Solution{Status: StatusUnknown}, fmt.Errorf("solver timed out after %s", s.opts.TimeLimit)
		}
		return &Solution{Status: StatusInfeasible}, results[0].err
	}

	sol := &Solution{
		Objective: results[best].objective,
		Values:    results[best].values,
	}
	sol.Status = StatusFeasible
	if allPositiveTaken(m, groups, sol.Values) {
		sol.Status = StatusOptimal
	}
	return sol, nil
}

// buildGroups collapses equality-linked variables into groups and applies
// fixed values, detecting direct contradictions.
func buildGroups(m *Model) ([]varGroup, []int, error) {
	parent := make([]int, m.NumVars())
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	for _, eq := range m.equalities {
		a, b := find(int(eq[0])), find(int(eq[1]))
		if a != b {
			if a > b {
				a, b = b, a
			}
			parent[b] = a // keep the smallest index as representative
		}
	}

	groupOf := make([]int, m.NumVars())
	index := make(map[int]int)
	var groups []varGroup
	for v := 0; v < m.NumVars(); v++ {
		root := find(v)
		gi, ok := index[root]
		if !ok {
			gi = len(groups)
			index[root] = gi
			groups = append(groups, varGroup{id: gi})
		}
		groups[gi].members = append(groups[gi].members, Var(v))
		groupOf[v] = gi
	}

	for _, t := range m.objective {
		groups[groupOf[t.Var]].coef += t.Coef
	}

	for v, val := range m.fixed {
		g := &groups[groupOf[v]]
		if g.fixed && g.value != val {
			return nil, nil, fmt.Errorf("contradictory fixed values for %s", m.Name(v))
		}
		g.fixed = true
		g.value = val
	}

	return groups, groupOf, nil
}

// runPass executes one greedy pass with the candidate order rotated by the
// pass index, followed by a bounded exchange improvement step.
func (s *GreedySolver) runPass(ctx context.Context, m *Model, groups []varGroup, groupOf []int, pass int) ([]int, int, error) {
	values := make([]int, m.NumVars())
	sums := make([]int, len(m.constraints))

	// Index constraints touching each variable once.
	varCons := make([][]Term, m.NumVars())
	for ci, c := range m.constraints {
		for _, t := range c.Terms {
			varCons[t.Var] = append(varCons[t.Var], Term{Var: Var(ci), Coef: t.Coef})
		}
	}

	setGroup := func(gi int, val int) bool {
		g := groups[gi]
		// Verify every constraint upper bound first.
		delta := make(map[int]int)
		for _, v := range g.members {
			for _, vc := range varCons[v] {
				delta[int(vc.Var)] += vc.Coef * (val - values[v])
			}
		}
		for ci, d := range delta {
			if sums[ci]+d > m.constraints[ci].Hi {
				return false
			}
		}
		for _, v := range g.members {
			values[v] = val
		}
		for ci, d := range delta {
			sums[ci] += d
		}
		return true
	}

	// Fixed groups first; a fixed group that violates a bound makes the
	// model infeasible.
	for gi := range groups {
		if !groups[gi].fixed || groups[gi].value == 0 {
			continue
		}
		if !setGroup(gi, groups[gi].value) {
			return nil, 0, fmt.Errorf("fixed assignment violates constraints")
		}
	}

	// Candidates: free groups with positive aggregated coefficient, in
	// descending coefficient order; ties rotate with the pass index so
	// every pass explores a different but reproducible order.
	var candidates []int
	for gi := range groups {
		if !groups[gi].fixed && groups[gi].coef > 0 {
			candidates = append(candidates, gi)
		}
	}
	n := len(candidates)
	sort.SliceStable(candidates, func(a, b int) bool {
		ga, gb := groups[candidates[a]], groups[candidates[b]]
		if ga.coef != gb.coef {
			return ga.coef > gb.coef
		}
		return (ga.id+pass)%max(n, 1) < (gb.id+pass)%max(n, 1)
	})

	var unplaced []int
	for _, gi := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if !setGroup(gi, 1) {
			unplaced = append(unplaced, gi)
		}
	}

	// Exchange step: try to displace a cheaper placed group in favour of
	// an unplaced, more valuable one.
	for _, gi := range unplaced {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		for _, gj := range candidates {
			if groups[gj].coef >= groups[gi].coef || values[groups[gj].members[0]] == 0 {
				continue
			}
			setGroup(gj, 0)
			if setGroup(gi, 1) {
				break
			}
			setGroup(gj, 1) // restore
		}
	}

	// Lower bounds are verified last; the model shapes we emit use them
	// only for pinned values, so a violation here is a real infeasibility.
	for ci, c := range m.constraints {
		if sums[ci] < c.Lo {
			return nil, 0, fmt.Errorf("constraint %d below lower bound", ci)
		}
	}

	objective := 0
	for _, t := range m.objective {
		objective += t.Coef * values[t.Var]
	}
	return values, objective, nil
}

// allPositiveTaken reports whether every free group with a positive
// coefficient ended at 1, which proves optimality for pure upper-bound
// models.
func allPositiveTaken(m *Model, groups []varGroup, values []int) bool {
	for _, g := range groups {
		if g.fixed || g.coef <= 0 {
			continue
		}
		if values[g.members[0]] == 0 {
			return false
		}
	}
	return true
}
