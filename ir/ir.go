/*
 *	Copyright 2023 Jan Pfeifer
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

// Package ir defines the expression graph that analyses operate on.
//
// A Graph is an arena of immutable expression nodes (Expr). Sub-expressions
// are shared by reference: the same *Expr can be an input of many uses, and it
// is tracked as one node. Every Expr carries a stable integer ExprId within
// its Graph, which analyses use to key derived information -- two structurally
// identical but distinct nodes get distinct ids and are tracked independently.
//
// Nodes arrive type-checked: every Expr carries its static value type as a
// shapes.Shape (a tensor shape, or a tuple of tensor shapes). This package
// performs no type checking beyond the structural validation done by the
// constructors; it assumes the shapes handed to it are correct.
//
// Nodes are never mutated after construction. All derived information (layout
// annotations, for one) lives in the analyses' own maps, keyed by ExprId.
package ir

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/relayir/relay/types/shapes"
)

// ExprId is a unique id of an expression node within a Graph.
type ExprId int

// InvalidExprId indicates a node that doesn't belong to any graph.
const InvalidExprId = ExprId(-1)

// OpName identifies an operator, e.g. "nn.conv2d". Operator inference rules
// are looked up by OpName.
type OpName string

// Graph is an arena of expression nodes. All nodes of one program belong to
// the same Graph; constructors panic when handed nodes from another graph.
//
// A Graph is not safe for concurrent use.
type Graph struct {
	name  string
	exprs []*Expr
}

// NewGraph creates an empty expression graph with the given name (used only
// for error messages and debugging).
func NewGraph(name string) *Graph {
	return &Graph{name: name}
}

// Name of the graph, set during its construction.
func (g *Graph) Name() string { return g.name }

// NumExprs returns the number of nodes registered in the graph.
func (g *Graph) NumExprs() int { return len(g.exprs) }

// ExprById returns the node with the given id. It panics for an out-of-range id.
func (g *Graph) ExprById(id ExprId) *Expr {
	if id < 0 || int(id) >= len(g.exprs) {
		exceptions.Panicf("invalid request Graph.ExprById(id=%d): graph %q has only %d nodes", id, g.name, len(g.exprs))
	}
	return g.exprs[id]
}

// String converts the Graph to a multi-line listing of its nodes.
func (g *Graph) String() string {
	parts := []string{fmt.Sprintf("Graph %q: %d nodes", g.name, len(g.exprs))}
	for ii, e := range g.exprs {
		parts = append(parts, fmt.Sprintf("#%d\t%s", ii, e))
	}
	return strings.Join(parts, "\n")
}

// Expr is an immutable node of the expression graph. Use the Graph constructor
// methods (Var, Call, Function, ...) to create one.
type Expr struct {
	graph *Graph
	id    ExprId
	kind  ExprKind
	shape shapes.Shape

	// Kind-specific payloads. Only the fields relevant for the node's kind are set.
	name   string  // Var, GlobalVar, Constructor.
	op     OpName  // Call, Op.
	attrs  any     // Call attribute payload, opaque to analyses.
	args   []*Expr // Call arguments, Tuple fields, and other node inputs.
	params []*Expr // Function parameters.
	body   *Expr   // Function body.
	index  int     // TupleGetItem field index.
}

// register allocates the next id in the arena and records the node.
func (g *Graph) register(e *Expr) *Expr {
	e.graph = g
	e.id = ExprId(len(g.exprs))
	g.exprs = append(g.exprs, e)
	return e
}

// checkOwned panics if any of the given nodes is nil or belongs to a different graph.
func (g *Graph) checkOwned(ctx string, nodes ...*Expr) {
	for ii, e := range nodes {
		if e == nil {
			exceptions.Panicf("%s: input node %d is nil (graph %q)", ctx, ii, g.name)
		}
		if e.graph != g {
			exceptions.Panicf("%s: input node %d (%s) belongs to graph %q, not to graph %q", ctx, ii, e, e.graph.name, g.name)
		}
	}
}

// Var creates a local variable node with the given name and checked shape.
func (g *Graph) Var(name string, shape shapes.Shape) *Expr {
	return g.register(&Expr{kind: KindVar, shape: shape, name: name})
}

// GlobalVar creates a reference to a module-level function by name.
func (g *Graph) GlobalVar(name string, shape shapes.Shape) *Expr {
	return g.register(&Expr{kind: KindGlobalVar, shape: shape, name: name})
}

// Constant creates a literal tensor node. The value payload is opaque to
// analyses and may be nil.
func (g *Graph) Constant(shape shapes.Shape, value any) *Expr {
	return g.register(&Expr{kind: KindConstant, shape: shape, attrs: value})
}

// Tuple groups the given expressions into a tuple value. Its shape is the
// tuple of the fields' shapes.
func (g *Graph) Tuple(fields ...*Expr) *Expr {
	g.checkOwned("Graph.Tuple", fields...)
	elementShapes := make([]shapes.Shape, 0, len(fields))
	for _, field := range fields {
		elementShapes = append(elementShapes, field.shape)
	}
	return g.register(&Expr{kind: KindTuple, shape: shapes.MakeTuple(elementShapes), args: fields})
}

// TupleGetItem projects field index out of a tuple-valued expression.
func (g *Graph) TupleGetItem(tuple *Expr, index int) *Expr {
	g.checkOwned("Graph.TupleGetItem", tuple)
	if !tuple.shape.IsTuple() {
		exceptions.Panicf("Graph.TupleGetItem: node %s is not tuple-valued", tuple)
	}
	if index < 0 || index >= tuple.shape.TupleSize() {
		exceptions.Panicf("Graph.TupleGetItem: index %d out-of-range for %s", index, tuple.shape)
	}
	return g.register(&Expr{kind: KindTupleGetItem, shape: tuple.shape.TupleShapes[index], args: []*Expr{tuple}, index: index})
}

// OpExpr creates an operator reference as a first-class value. It carries no
// tensor shape.
func (g *Graph) OpExpr(op OpName) *Expr {
	return g.register(&Expr{kind: KindOp, shape: shapes.Invalid(), op: op})
}

// Call applies operator op to the given arguments, producing a value of the
// given (already checked) shape. attrs is the call's attribute payload, opaque
// here; operator inference rules downcast it to the operator's attribute type.
func (g *Graph) Call(op OpName, attrs any, shape shapes.Shape, args ...*Expr) *Expr {
	g.checkOwned("Graph.Call", args...)
	return g.register(&Expr{kind: KindCall, shape: shape, op: op, attrs: attrs, args: args})
}

// Function creates a lambda with the given parameters and body. Parameters
// must be Var nodes. The function node's value shape is its body's shape.
func (g *Graph) Function(params []*Expr, body *Expr) *Expr {
	g.checkOwned("Graph.Function", append(append([]*Expr{}, params...), body)...)
	for _, param := range params {
		if param.kind != KindVar {
			exceptions.Panicf("Graph.Function: parameter %s is not a Var node", param)
		}
	}
	return g.register(&Expr{kind: KindFunction, shape: body.shape, params: params, body: body})
}

// Let binds variable v to value within body. v must be a Var node.
func (g *Graph) Let(v, value, body *Expr) *Expr {
	g.checkOwned("Graph.Let", v, value, body)
	if v.kind != KindVar {
		exceptions.Panicf("Graph.Let: binding %s is not a Var node", v)
	}
	return g.register(&Expr{kind: KindLet, shape: body.shape, args: []*Expr{v, value, body}})
}

// If creates a conditional expression. Both branches must already have been
// checked to the same type; the node takes the true branch's shape.
func (g *Graph) If(cond, onTrue, onFalse *Expr) *Expr {
	g.checkOwned("Graph.If", cond, onTrue, onFalse)
	return g.register(&Expr{kind: KindIf, shape: onTrue.shape, args: []*Expr{cond, onTrue, onFalse}})
}

// Match creates an ADT pattern match over data. Clause bodies are not modeled
// beyond their contribution to the checked shape, which the caller supplies.
func (g *Graph) Match(data *Expr, shape shapes.Shape) *Expr {
	g.checkOwned("Graph.Match", data)
	return g.register(&Expr{kind: KindMatch, shape: shape, args: []*Expr{data}})
}

// RefCreate creates a mutable reference cell holding value.
func (g *Graph) RefCreate(value *Expr) *Expr {
	g.checkOwned("Graph.RefCreate", value)
	return g.register(&Expr{kind: KindRefCreate, shape: value.shape, args: []*Expr{value}})
}

// RefRead reads a mutable reference cell.
func (g *Graph) RefRead(ref *Expr) *Expr {
	g.checkOwned("Graph.RefRead", ref)
	return g.register(&Expr{kind: KindRefRead, shape: ref.shape, args: []*Expr{ref}})
}

// RefWrite writes value into a mutable reference cell.
func (g *Graph) RefWrite(ref, value *Expr) *Expr {
	g.checkOwned("Graph.RefWrite", ref, value)
	return g.register(&Expr{kind: KindRefWrite, shape: value.shape, args: []*Expr{ref, value}})
}

// Constructor creates an ADT constructor reference by name.
func (g *Graph) Constructor(name string, shape shapes.Shape) *Expr {
	return g.register(&Expr{kind: KindConstructor, shape: shape, name: name})
}

// Graph that holds this node.
func (e *Expr) Graph() *Graph {
	if e == nil {
		return nil
	}
	return e.graph
}

// Id is the unique id of this node within its Graph.
func (e *Expr) Id() ExprId {
	if e == nil {
		return InvalidExprId
	}
	return e.id
}

// Kind of the node.
func (e *Expr) Kind() ExprKind {
	if e == nil {
		return KindInvalid
	}
	return e.kind
}

// Shape is the node's checked static value type: a tensor shape, or a tuple of
// tensor shapes. It implements the shapes.HasShape interface.
func (e *Expr) Shape() shapes.Shape {
	if e == nil {
		return shapes.Shape{}
	}
	return e.shape
}

// Name of a Var, GlobalVar or Constructor node; empty for other kinds.
func (e *Expr) Name() string { return e.name }

// Op returns the operator applied by a Call node (or referenced by an Op node).
func (e *Expr) Op() OpName { return e.op }

// Attrs returns the call's attribute payload. It is opaque here; operator
// inference rules downcast it to the operator's attribute type.
func (e *Expr) Attrs() any { return e.attrs }

// Args are the nodes that are direct inputs to this node: call arguments,
// tuple fields, etc. The returned slice must not be modified.
func (e *Expr) Args() []*Expr { return e.args }

// Params are the parameters of a Function node.
func (e *Expr) Params() []*Expr { return e.params }

// Body is the body of a Function node.
func (e *Expr) Body() *Expr { return e.body }

// Index is the field index of a TupleGetItem node.
func (e *Expr) Index() int { return e.index }

// AssertValid panics if e is nil or doesn't belong to a graph.
func (e *Expr) AssertValid() {
	if e == nil {
		exceptions.Panicf("Expr is nil")
	}
	if e.graph == nil || e.kind == KindInvalid {
		exceptions.Panicf("Expr in an invalid state")
	}
}

// String implements the fmt.Stringer interface.
func (e *Expr) String() string {
	if e == nil {
		return "Expr(nil)"
	}
	var desc string
	switch e.kind {
	case KindVar, KindGlobalVar, KindConstructor:
		desc = fmt.Sprintf("%s(%q)", e.kind, e.name)
	case KindCall:
		argIds := make([]string, 0, len(e.args))
		for _, arg := range e.args {
			argIds = append(argIds, fmt.Sprintf("#%d", arg.id))
		}
		desc = fmt.Sprintf("Call(%s: %s)", e.op, strings.Join(argIds, ", "))
	case KindOp:
		return fmt.Sprintf("Op(%s)", e.op)
	case KindTupleGetItem:
		desc = fmt.Sprintf("TupleGetItem(#%d, %d)", e.args[0].id, e.index)
	case KindFunction:
		desc = fmt.Sprintf("Function(%d params, body=#%d)", len(e.params), e.body.id)
	default:
		desc = e.kind.String()
	}
	return fmt.Sprintf("%s -> %s", desc, e.shape)
}
