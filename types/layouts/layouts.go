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

// Package layouts defines the layout annotations attached to expression nodes
// by layout inference.
//
// A Layout is an opaque symbolic tag describing the physical axis ordering of a
// tensor, for instance "NCHW" or "OIHW". The distinguished value Undef means
// "unconstrained". The inference engine compares layouts only by equality;
// interpreting their contents is left to the operator inference rules and to
// the downstream rewriting pass that inserts conversions.
//
// RelayLayout is the per-node annotation: a TensorLayout for a node producing a
// single tensor, or a TupleLayout for a node producing a tuple of tensors. The
// arity of a node's RelayLayout always equals the arity of its static shape
// (see shapes.Shape.NumOutputs) -- the inference engine enforces this for every
// entry it ever stores.
package layouts

import (
	"fmt"
	"strings"

	"github.com/relayir/relay/types/shapes"
)

// Layout is a symbolic tag for a tensor's physical axis ordering, e.g. "NCHW".
// The zero value Undef means the layout is not (yet) constrained.
type Layout string

// Undef is the unconstrained layout. It is the zero value of Layout.
const Undef = Layout("")

// Defined returns whether the layout is constrained, i.e., not Undef.
func (l Layout) Defined() bool { return l != Undef }

// String implements fmt.Stringer. Undef prints as "undef".
func (l Layout) String() string {
	if !l.Defined() {
		return "undef"
	}
	return string(l)
}

// RelayLayout annotates one expression node: either a TensorLayout or a
// TupleLayout. It is a closed union; no other implementations exist.
type RelayLayout interface {
	// NumOutputs returns the arity of the annotation: 1 for a TensorLayout,
	// the number of fields for a TupleLayout.
	NumOutputs() int

	// Layouts returns the annotation as an ordered sequence of layouts, with
	// one element per output tensor.
	Layouts() []Layout

	// Equal reports whether both annotations have the same variant and the
	// same layouts, element-wise.
	Equal(other RelayLayout) bool

	// String implements fmt.Stringer.
	String() string

	relayLayout() // Seals the union.
}

// TensorLayout annotates a node whose value is a single tensor.
type TensorLayout struct {
	Layout Layout
}

// TupleLayout annotates a node whose value is a tuple of tensors. Its length
// always equals the tuple's field count.
type TupleLayout struct {
	Fields []Layout
}

func (TensorLayout) relayLayout() {}
func (TupleLayout) relayLayout()  {}

// NumOutputs returns 1.
func (TensorLayout) NumOutputs() int { return 1 }

// Layouts returns a one-element sequence with the tensor's layout.
func (l TensorLayout) Layouts() []Layout { return []Layout{l.Layout} }

// Equal reports whether other is a TensorLayout with the same layout.
func (l TensorLayout) Equal(other RelayLayout) bool {
	o, ok := other.(TensorLayout)
	return ok && o.Layout == l.Layout
}

// String implements fmt.Stringer.
func (l TensorLayout) String() string {
	return fmt.Sprintf("TensorLayout(%s)", l.Layout)
}

// NumOutputs returns the number of fields of the tuple.
func (l TupleLayout) NumOutputs() int { return len(l.Fields) }

// Layouts returns the stored sequence of field layouts.
func (l TupleLayout) Layouts() []Layout { return l.Fields }

// Equal reports whether other is a TupleLayout with the same fields.
func (l TupleLayout) Equal(other RelayLayout) bool {
	o, ok := other.(TupleLayout)
	if !ok || len(o.Fields) != len(l.Fields) {
		return false
	}
	for ii, field := range l.Fields {
		if o.Fields[ii] != field {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (l TupleLayout) String() string {
	parts := make([]string, 0, len(l.Fields))
	for _, field := range l.Fields {
		parts = append(parts, field.String())
	}
	return fmt.Sprintf("TupleLayout(%s)", strings.Join(parts, ", "))
}

// UndefFor returns the default, all-Undef annotation shaped to the arity of
// the given static shape: TensorLayout(Undef) for a tensor shape, TupleLayout
// with TupleSize Undef fields for a tuple shape.
func UndefFor(shape shapes.Shape) RelayLayout {
	if !shape.IsTuple() {
		return TensorLayout{Layout: Undef}
	}
	return TupleLayout{Fields: make([]Layout, shape.TupleSize())}
}

// MatchesShape reports whether the annotation's arity matches the arity of the
// given static shape. Every entry stored by the inference engine satisfies this.
func MatchesShape(layout RelayLayout, shape shapes.Shape) bool {
	if _, isTuple := layout.(TupleLayout); isTuple != shape.IsTuple() {
		return false
	}
	return layout.NumOutputs() == shape.NumOutputs()
}
