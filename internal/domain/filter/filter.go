package filter

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// MaxConditionsPerGroup is the maximum number of clauses per $and/$or group.
const MaxConditionsPerGroup = 32

// Op is a comparison operator on a single metadata key.
type Op string

const (
	OpEq  Op = "$eq"
	OpNe  Op = "$ne"
	OpIn  Op = "$in"
	OpNin Op = "$nin"
)

// Negated reports whether the operator matches documents lacking the key.
func (o Op) Negated() bool { return o == OpNe || o == OpNin }

// Logic is the node type of an Expression.
type Logic int

const (
	// LogicAnd matches when every child matches. An empty AND matches everything.
	LogicAnd Logic = iota
	// LogicOr matches when any child matches.
	LogicOr
	// LogicLeaf is a single Condition.
	LogicLeaf
)

// Expression is a parsed where filter.
type Expression struct {
	logic    Logic
	cond     Condition
	children []Expression
}

// Logic returns the node type.
func (e Expression) Logic() Logic { return e.logic }

// Children returns the sub-expressions of an AND/OR node.
func (e Expression) Children() []Expression { return e.children }

// Condition returns the leaf condition.
func (e Expression) Condition() Condition { return e.cond }

// IsEmpty reports whether the expression matches every document.
func (e Expression) IsEmpty() bool {
	return e.logic == LogicAnd && len(e.children) == 0
}

// Matches evaluates the expression against document metadata.
func (e Expression) Matches(metadata map[string]any) bool {
	switch e.logic {
	case LogicLeaf:
		return e.cond.Matches(metadata)
	case LogicOr:
		for _, c := range e.children {
			if c.Matches(metadata) {
				return true
			}
		}
		return false
	default:
		for _, c := range e.children {
			if !c.Matches(metadata) {
				return false
			}
		}
		return true
	}
}

// Condition is a single key comparison.
type Condition struct {
	key    string
	op     Op
	values []Value
}

// Key returns the metadata key.
func (c Condition) Key() string { return c.key }

// Op returns the operator.
func (c Condition) Op() Op { return c.op }

// Values returns the operand(s); one for $eq/$ne.
func (c Condition) Values() []Value { return c.values }

// Matches evaluates the condition. $ne and $nin match a missing key.
func (c Condition) Matches(metadata map[string]any) bool {
	raw, ok := metadata[c.key]
	if !ok {
		return c.op.Negated()
	}
	v, err := NewValue(raw)
	if err != nil {
		return c.op.Negated()
	}
	hit := slices.ContainsFunc(c.values, v.Equal)
	if c.op.Negated() {
		return !hit
	}
	return hit
}

// Kind is the scalar type of a Value.
type Kind byte

const (
	KindString Kind = 's'
	KindNumber Kind = 'n'
	KindBool   Kind = 'b'
)

// Value is a normalized scalar metadata value.
type Value struct {
	kind Kind
	text string
	raw  any
}

// NewValue normalizes a decoded JSON scalar. Numbers of any Go type compare equal
// when their float64 values are equal.
func NewValue(v any) (Value, error) {
	switch t := v.(type) {
	case string:
		return Value{kind: KindString, text: t, raw: t}, nil
	case bool:
		return Value{kind: KindBool, text: strconv.FormatBool(t), raw: t}, nil
	case float64:
		return number(t), nil
	case float32:
		return number(float64(t)), nil
	case int:
		return number(float64(t)), nil
	case int32:
		return number(float64(t)), nil
	case int64:
		return number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t, err)
		}
		return number(f), nil
	default:
		return Value{}, fmt.Errorf("value must be a string, number or bool, got %T", v)
	}
}

func number(f float64) Value {
	return Value{kind: KindNumber, text: strconv.FormatFloat(f, 'g', -1, 64), raw: f}
}

// Kind returns the scalar type.
func (v Value) Kind() Kind { return v.kind }

// String returns the canonical text form.
func (v Value) String() string { return v.text }

// Raw returns the value as a JSON-encodable Go scalar.
func (v Value) Raw() any { return v.raw }

// Equal reports type-aware equality.
func (v Value) Equal(o Value) bool { return v.kind == o.kind && v.text == o.text }

// Parse builds an Expression from a decoded where object. A nil or empty
// map yields an empty expression. Several top-level keys form an implicit AND.
func Parse(where map[string]any) (Expression, error) {
	if len(where) == 0 {
		return Expression{logic: LogicAnd}, nil
	}
	if len(where) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many conditions (max %d)", MaxConditionsPerGroup)
	}

	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	nodes := make([]Expression, 0, len(keys))
	for _, k := range keys {
		n, err := parseKey(k, where[k])
		if err != nil {
			return Expression{}, err
		}
		nodes = append(nodes, n)
	}
	if len(nodes) == 1 {
		return nodes[0], nil
	}
	return Expression{logic: LogicAnd, children: nodes}, nil
}

func parseKey(key string, raw any) (Expression, error) {
	switch key {
	case "$and":
		return parseGroup(LogicAnd, key, raw)
	case "$or":
		return parseGroup(LogicOr, key, raw)
	}
	if key == "" {
		return Expression{}, fmt.Errorf("filter key is required")
	}
	if strings.HasPrefix(key, "$") {
		return Expression{}, fmt.Errorf("unsupported logical operator %q", key)
	}

	ops, isMap := raw.(map[string]any)
	if !isMap {
		v, err := NewValue(raw)
		if err != nil {
			return Expression{}, fmt.Errorf("key %q: %w", key, err)
		}
		return leaf(key, OpEq, v), nil
	}
	if len(ops) != 1 {
		return Expression{}, fmt.Errorf("key %q: expected exactly one operator, got %d", key, len(ops))
	}
	var (
		name    string
		operand any
	)
	for name, operand = range ops {
	}
	return parseOp(key, Op(name), operand)
}

func parseOp(key string, op Op, operand any) (Expression, error) {
	switch op {
	case OpEq, OpNe:
		v, err := NewValue(operand)
		if err != nil {
			return Expression{}, fmt.Errorf("key %q %s: %w", key, op, err)
		}
		return leaf(key, op, v), nil
	case OpIn, OpNin:
		list, ok := operand.([]any)
		if !ok || len(list) == 0 {
			return Expression{}, fmt.Errorf("key %q %s: expected a non-empty list", key, op)
		}
		vals := make([]Value, 0, len(list))
		for _, item := range list {
			v, err := NewValue(item)
			if err != nil {
				return Expression{}, fmt.Errorf("key %q %s: %w", key, op, err)
			}
			vals = append(vals, v)
		}
		return Expression{logic: LogicLeaf, cond: Condition{key: key, op: op, values: vals}}, nil
	default:
		return Expression{}, fmt.Errorf("key %q: unsupported operator %q", key, op)
	}
}

func parseGroup(logic Logic, name string, raw any) (Expression, error) {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return Expression{}, fmt.Errorf("%s expects a non-empty list of filters", name)
	}
	if len(list) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many %s conditions (max %d)", name, MaxConditionsPerGroup)
	}
	children := make([]Expression, 0, len(list))
	for i, item := range list {
		m, isMap := item.(map[string]any)
		if !isMap || len(m) == 0 {
			return Expression{}, fmt.Errorf("%s[%d] must be a non-empty object", name, i)
		}
		child, err := Parse(m)
		if err != nil {
			return Expression{}, fmt.Errorf("%s[%d]: %w", name, i, err)
		}
		children = append(children, child)
	}
	return Expression{logic: logic, children: children}, nil
}

func leaf(key string, op Op, v Value) Expression {
	return Expression{logic: LogicLeaf, cond: Condition{key: key, op: op, values: []Value{v}}}
}
