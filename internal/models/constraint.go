package models

import (
	"fmt"
	"regexp"
	"strings"
)

// ConstraintOp enumerates the supported constraint operators.
type ConstraintOp string

const (
	OpEQ    ConstraintOp = "="      // paper_437 = day_3
	OpIN    ConstraintOp = "in"     // room_Pinus in {day_4, day_5}
	OpNEQ   ConstraintOp = "!="     // paper_12 != day_1
	OpNotIn ConstraintOp = "not_in" // paper_12 not_in {day_1, day_2}
	OpLT    ConstraintOp = "<"      // paper_1 < paper_2 (precedence)
)

// Constraint is a single scheduling constraint.
//
// Text form examples:
//
//	paper_437 = day_3
//	section_S1 = "Welcome"
//	room_Pinus in {day_4, day_5}
type Constraint struct {
	CID         string       `json:"cid"`
	SubjectType string       `json:"subject_type"` // paper, section, room, chair, topic
	SubjectID   string       `json:"subject_id"`
	Op          ConstraintOp `json:"op"`
	Value       []string     `json:"value"`
	Description string       `json:"description,omitempty"`
}

var constraintPattern = regexp.MustCompile(`^\s*(\w+)\s+(=|!=|<|in|not_in)\s+(.+?)\s*$`)

// ParseConstraint parses "subject op value" text into a Constraint.
func ParseConstraint(text, cid string) (Constraint, error) {
	m := constraintPattern.FindStringSubmatch(text)
	if m == nil {
		return Constraint{}, fmt.Errorf("cannot parse constraint %q", text)
	}
	rawSubj, opStr, rawVal := m[1], strings.ToLower(m[2]), strings.TrimSpace(m[3])

	var op ConstraintOp
	switch opStr {
	case "=":
		op = OpEQ
	case "in":
		op = OpIN
	case "!=":
		op = OpNEQ
	case "not_in":
		op = OpNotIn
	case "<":
		op = OpLT
	default:
		return Constraint{}, fmt.Errorf("unknown constraint operator %q", opStr)
	}

	// Split subject into type + id (paper_437 -> paper, 437).
	subjType, subjID, _ := strings.Cut(rawSubj, "_")

	// Value is either a {a, b, c} set, a quoted string, or a bare token.
	var values []string
	if strings.HasPrefix(rawVal, "{") && strings.HasSuffix(rawVal, "}") {
		for _, v := range strings.Split(rawVal[1:len(rawVal)-1], ",") {
			values = append(values, trimQuotes(strings.TrimSpace(v)))
		}
	} else {
		values = []string{trimQuotes(rawVal)}
	}

	return Constraint{
		CID:         cid,
		SubjectType: subjType,
		SubjectID:   subjID,
		Op:          op,
		Value:       values,
	}, nil
}

// Text renders the constraint back into its DSL form. Parsing the result
// yields an equal constraint for every operator.
func (c Constraint) Text() string {
	var valStr string
	switch {
	case len(c.Value) > 1:
		valStr = "{" + strings.Join(c.Value, ", ") + "}"
	case len(c.Value) == 1:
		valStr = c.Value[0]
	}
	subj := c.SubjectType
	if c.SubjectID != "" {
		subj = c.SubjectType + "_" + c.SubjectID
	}
	return fmt.Sprintf("%s %s %s", subj, c.Op, valStr)
}

func trimQuotes(s string) string {
	s = strings.Trim(s, `"`)
	return strings.Trim(s, `'`)
}
