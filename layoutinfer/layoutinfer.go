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

// Package layoutinfer infers a physical data layout (see types/layouts) for
// every value produced by an expression graph (see ir), so that later lowering
// stages can generate layout-correct code and insert layout conversions only
// where producer and consumer disagree.
//
// The engine is a fixed-point analysis: it repeatedly traverses the graph from
// the root, invoking per-operator inference rules (see Registry) on every call
// site, merging their proposals into a layout map keyed by node identity, until
// a full round leaves the map unchanged. A generation counter, incremented once
// per round, gates memoized results so that a node resolved earlier in the same
// round is reused, while values left over from earlier rounds are refined.
//
// Usage:
//
//	li := layoutinfer.New(rules.DefaultRegistry())
//	if err := li.Infer(root); err != nil { ... }
//	for node, nodeLayouts := range li.Collect() { ... }
//
// Only Var, Call and Function nodes are supported: Var layouts are refined by
// the calls that use them, Function delegates to its body, and Call is where
// rules run. Visiting any other node kind aborts the run -- that is a scope
// boundary of the analysis, not a recoverable condition, since substituting a
// default layout there would silently corrupt downstream layout decisions.
//
// An Inferencer owns its layout map exclusively and is not safe for concurrent
// use. The visitor recurses to the depth of the expression graph.
//
// Convergence depends on the rules being monotone and eventually stable; an
// oscillating rule set loops forever unless a round cap is set with
// SetMaxRounds.
package layoutinfer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"k8s.io/klog/v2"

	"github.com/relayir/relay/ir"
	"github.com/relayir/relay/types/layouts"
	"github.com/relayir/relay/types/shapes"
)

// Inferencer runs layout inference over one expression graph. Create one with
// New, optionally Seed it with externally known layouts, run Infer, and read
// the result with Collect.
//
// The zero value is not usable. An Inferencer is not safe for concurrent use,
// and after a fatal error its layout map is invalidated: create a new one.
type Inferencer struct {
	registry Registry
	graph    *ir.Graph

	entries    map[ir.ExprId]*mapEntry
	generation int
	modified   bool
	converged  bool
	failed     bool

	maxRounds int
}

// mapEntry is one layout-map slot: the node's current annotation and the last
// generation (round) in which the node was resolved.
type mapEntry struct {
	node       *ir.Expr
	layout     layouts.RelayLayout
	generation int
}

// New creates an Inferencer using the given rule registry. The registry is
// read-only to the engine; nil is valid and means no operator contributes
// layout information.
func New(registry Registry) *Inferencer {
	return &Inferencer{
		registry: registry,
		entries:  make(map[ir.ExprId]*mapEntry),
	}
}

// SetMaxRounds bounds the number of fixed-point rounds one Infer call may run.
// With a cap, a rule set that never stabilizes makes Infer return a "did not
// converge" error instead of looping forever. n <= 0 (the default) means
// unbounded.
func (li *Inferencer) SetMaxRounds(n int) {
	li.maxRounds = n
}

// Seed bootstraps the layout map with externally known layouts, e.g. inputs
// whose layout the caller already fixed. It must be called before the first
// Infer. Seeded entries must match their node's arity and do not count as
// modifications of the first round.
func (li *Inferencer) Seed(seeds map[*ir.Expr]layouts.RelayLayout) error {
	return exceptions.TryCatch[error](func() {
		if li.generation > 0 {
			exceptions.Panicf("Inferencer.Seed called after inference started (round %d)", li.generation)
		}
		for node, layout := range seeds {
			node.AssertValid()
			li.checkGraph(node)
			if !layouts.MatchesShape(layout, node.Shape()) {
				exceptions.Panicf("seed layout %s has arity %d, incompatible with node #%d of type %s (arity %d)",
					layout, layout.NumOutputs(), node.Id(), node.Shape(), node.Shape().NumOutputs())
			}
			li.entries[node.Id()] = &mapEntry{node: node, layout: layout}
		}
	})
}

// Infer resolves the layout of root and its full dependency closure, repeating
// rounds of traversal until a round changes nothing. A second call on an
// already-converged map is a no-op.
//
// On error the layout map is invalid; there is no partial-result recovery.
func (li *Inferencer) Infer(root *ir.Expr) error {
	err := exceptions.TryCatch[error](func() { li.run(root) })
	if err != nil {
		li.failed = true
		return errors.WithMessage(err, "layout inference failed")
	}
	return nil
}

// Converged returns whether the analysis reached a fixed point. Only then may
// Collect be called.
func (li *Inferencer) Converged() bool { return li.converged && !li.failed }

// Generation returns the current round counter: 0 before the first Infer, and
// afterwards the total number of rounds run (the last one being the round that
// confirmed the fixed point).
func (li *Inferencer) Generation() int { return li.generation }

// Collect converts the converged layout map into a mapping from node to its
// ordered layouts: one element for a tensor-valued node, the tuple's field
// layouts for a tuple-valued node. This is what the downstream layout
// rewriting pass consumes.
//
// Calling it before Infer converged, or after a fatal error, is a contract
// violation and panics.
func (li *Inferencer) Collect() map[*ir.Expr][]layouts.Layout {
	if li.failed {
		exceptions.Panicf("Inferencer.Collect: layout map was invalidated by a fatal inference error")
	}
	if !li.converged {
		exceptions.Panicf("Inferencer.Collect called before inference converged; call Infer first")
	}
	collected := make(map[*ir.Expr][]layouts.Layout, len(li.entries))
	for _, ent := range li.entries {
		collected[ent.node] = slices.Clone(ent.layout.Layouts())
	}
	return collected
}

// String lists the layout map ordered by node id, for debugging.
func (li *Inferencer) String() string {
	ids := maps.Keys(li.entries)
	slices.Sort(ids)
	parts := make([]string, 0, len(ids)+1)
	parts = append(parts, fmt.Sprintf("Inferencer: %d entries, round %d, converged=%v", len(ids), li.generation, li.Converged()))
	for _, id := range ids {
		ent := li.entries[id]
		parts = append(parts, fmt.Sprintf("#%d\t%s\t(round %d)", id, ent.layout, ent.generation))
	}
	return strings.Join(parts, "\n")
}

// run is the fixed-point driver. It panics (with an error value) on any fatal
// condition; Infer converts that to a returned error.
func (li *Inferencer) run(root *ir.Expr) {
	if li.failed {
		exceptions.Panicf("Inferencer previously failed, its layout map is invalid; create a new Inferencer")
	}
	root.AssertValid()
	li.checkGraph(root)

	rounds := 0
	for {
		li.generation++
		li.modified = false
		rounds++
		li.visit(root)
		klog.V(1).Infof("layout inference round %d on graph %q: modified=%v", li.generation, li.graph.Name(), li.modified)
		if !li.modified {
			break
		}
		if li.maxRounds > 0 && rounds >= li.maxRounds {
			exceptions.Panicf("layout inference did not converge on graph %q after %d rounds", li.graph.Name(), rounds)
		}
	}
	li.converged = true
}

// checkGraph pins the graph this run works on; all nodes must come from it.
func (li *Inferencer) checkGraph(e *ir.Expr) {
	if li.graph == nil {
		li.graph = e.Graph()
		return
	}
	if e.Graph() != li.graph {
		exceptions.Panicf("node #%d belongs to graph %q, but this Inferencer works on graph %q", e.Id(), e.Graph().Name(), li.graph.Name())
	}
}

// visit produces the layout of e, recursing into dependencies first. Results
// are memoized per round: a node already resolved in the current generation is
// returned as-is.
func (li *Inferencer) visit(e *ir.Expr) layouts.RelayLayout {
	if ent, found := li.entries[e.Id()]; found && ent.generation == li.generation {
		return ent.layout
	}
	switch e.Kind() {
	case ir.KindVar:
		// Leaf: nothing to recurse into. Its layout only changes when a call
		// using it proposes a refinement.
		layout := li.getOrDefault(e)
		li.touch(e)
		return layout
	case ir.KindFunction:
		// Delegates entirely to the body. Parameter handling is a known
		// simplification of this version, not an oversight.
		return li.visit(e.Body())
	case ir.KindCall:
		return li.visitCall(e)
	default:
		// Scope boundary: substituting a default layout here would silently
		// produce wrong downstream layouts, so abort instead.
		exceptions.Panicf("%s node #%d is not supported by layout inference", e.Kind(), e.Id())
	}
	return nil // Unreachable.
}

// visitCall runs the call-site inference protocol: resolve argument layouts,
// hand the operand vector to the operator's rule, and merge its proposals.
func (li *Inferencer) visitCall(call *ir.Expr) layouts.RelayLayout {
	args := call.Args()
	numArgs := len(args)
	operands := make([]layouts.RelayLayout, 0, numArgs+1)
	operandShapes := make([]shapes.Shape, 0, numArgs+1)
	for _, arg := range args {
		operands = append(operands, li.visit(arg))
		operandShapes = append(operandShapes, arg.Shape())
	}
	own := li.getOrDefault(call)
	operands = append(operands, own)
	operandShapes = append(operandShapes, call.Shape())

	rule, found := li.registry[call.Op()]
	if !found {
		// Not an error: the operator contributes no layout information.
		klog.V(2).Infof("call #%d: no layout rule for operator %q", call.Id(), call.Op())
		return own
	}
	proposals, ok := rule(operands, operandShapes, numArgs, call.Attrs())
	if !ok {
		klog.V(2).Infof("call #%d: rule for %q declined", call.Id(), call.Op())
		return own
	}
	for _, proposal := range proposals {
		var node *ir.Expr
		switch {
		case proposal.Operand >= 0 && proposal.Operand < numArgs:
			node = args[proposal.Operand]
		case proposal.Operand == numArgs:
			node = call
		default:
			exceptions.Panicf("rule for %q proposed a layout for operand %d, but call #%d has only %d operands",
				call.Op(), proposal.Operand, call.Id(), numArgs+1)
		}
		li.set(node, proposal.Layout)
	}
	li.touch(call)
	return li.entries[call.Id()].layout
}

// getOrDefault returns the node's current annotation, default-inserting an
// all-Undef one shaped to the node's static arity when the node is seen for
// the first time. Growing the map's domain counts as a change.
func (li *Inferencer) getOrDefault(e *ir.Expr) layouts.RelayLayout {
	if ent, found := li.entries[e.Id()]; found {
		return ent.layout
	}
	li.checkGraph(e)
	def := layouts.UndefFor(e.Shape())
	li.entries[e.Id()] = &mapEntry{node: e, layout: def, generation: li.generation}
	li.modified = true
	return def
}

// set replaces the node's annotation when absent or structurally different,
// flagging the round as modified. An arity mismatch is a defect of the rule
// (or seed) that produced the layout and aborts the run -- the engine never
// truncates or pads.
func (li *Inferencer) set(e *ir.Expr, layout layouts.RelayLayout) {
	if !layouts.MatchesShape(layout, e.Shape()) {
		exceptions.Panicf("proposed layout %s has arity %d, incompatible with node #%d of type %s (arity %d)",
			layout, layout.NumOutputs(), e.Id(), e.Shape(), e.Shape().NumOutputs())
	}
	ent, found := li.entries[e.Id()]
	if !found {
		li.checkGraph(e)
		li.entries[e.Id()] = &mapEntry{node: e, layout: layout, generation: li.generation}
		li.modified = true
		return
	}
	if !ent.layout.Equal(layout) {
		ent.layout = layout
		li.modified = true
	}
}

// touch marks the node as resolved for the current generation without changing
// its value, so repeated visits within one round skip recomputation.
func (li *Inferencer) touch(e *ir.Expr) {
	ent, found := li.entries[e.Id()]
	if !found {
		exceptions.Panicf("Inferencer.touch: node #%d has no layout-map entry", e.Id())
	}
	ent.generation = li.generation
}
