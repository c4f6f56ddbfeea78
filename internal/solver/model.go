// Package solver defines the assignment-problem model the paper placement
// phase builds, and the Solver capability that consumes it. Model
// construction is solver-agnostic: boolean decision variables, linear
// constraints and a linear objective, so any ILP/CP backend can be plugged
// in behind the Solver interface.
package solver

import "context"

// Var identifies a boolean decision variable within a Model.
type Var int

// Term is one coefficient·variable term of a linear expression.
type Term struct {
	Var  Var
	Coef int
}

// LinearConstraint bounds a linear expression: Lo ≤ Σ Coef·Var ≤ Hi.
type LinearConstraint struct {
	Terms []Term
	Lo    int
	Hi    int
}

// Model is an assignment problem over boolean variables.
type Model struct {
	names       []string
	constraints []LinearConstraint
	equalities  [][2]Var
	fixed       map[Var]int
	objective   []Term
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{fixed: make(map[Var]int)}
}

// NewBoolVar adds a boolean variable and returns its handle.
func (m *Model) NewBoolVar(name string) Var {
	m.names = append(m.names, name)
	return Var(len(m.names) - 1)
}

// NumVars reports the number of variables declared so far.
func (m *Model) NumVars() int {
	return len(m.names)
}

// Name returns the declared name of a variable.
func (m *Model) Name(v Var) string {
	return m.names[v]
}

// AddLinear constrains lo ≤ Σ terms ≤ hi.
func (m *Model) AddLinear(terms []Term, lo, hi int) {
	m.constraints = append(m.constraints, LinearConstraint{Terms: terms, Lo: lo, Hi: hi})
}

// AddAtMost constrains the sum of the given variables to at most bound.
func (m *Model) AddAtMost(vars []Var, bound int) {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Var: v, Coef: 1}
	}
	m.AddLinear(terms, 0, bound)
}

// FixVar pins a variable to a value (0 or 1).
func (m *Model) FixVar(v Var, value int) {
	m.fixed[v] = value
}

// AddEquality forces two variables to take the same value.
func (m *Model) AddEquality(a, b Var) {
	m.equalities = append(m.equalities, [2]Var{a, b})
}

// Maximize sets the linear objective to maximize.
func (m *Model) Maximize(terms []Term) {
	m.objective = terms
}

// Status reports the outcome of a solve, mirroring the usual CP/ILP
// terminology.
type Status int

const (
	StatusUnknown Status = iota
	StatusOptimal
	StatusFeasible
	StatusInfeasible
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusFeasible:
		return "FEASIBLE"
	case StatusInfeasible:
		return "INFEASIBLE"
	default:
		return "UNKNOWN"
	}
}

// Solution carries the variable values and objective of a solve.
type Solution struct {
	Status    Status
	Objective int
	Values    []int
}

// Value returns the solved value of a variable.
func (s *Solution) Value(v Var) int {
	return s.Values[v]
}

// Solver is the injected capability that solves an assignment model. The
// call blocks until a solution is found, the model is proven infeasible,
// or the backend's time budget expires.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Solution, error)
}
