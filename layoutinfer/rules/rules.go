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

// Package rules provides layout inference rules for common tensor operators,
// plus DefaultRegistry bundling them for layoutinfer.New.
//
// The engine itself knows nothing about these operators: this package is the
// "operator library" side of the layoutinfer.InferLayoutFunc contract. All
// rules here are monotone -- they only refine Undef slots, or re-propose what
// is already in place -- so inference with DefaultRegistry always converges.
package rules

import (
	"github.com/relayir/relay/ir"
	"github.com/relayir/relay/layoutinfer"
	"github.com/relayir/relay/types/layouts"
	"github.com/relayir/relay/types/shapes"
)

// Operators covered by this package.
const (
	OpConv2D    ir.OpName = "nn.conv2d"
	OpDense     ir.OpName = "nn.dense"
	OpBatchNorm ir.OpName = "nn.batch_norm"
	OpBiasAdd   ir.OpName = "nn.bias_add"
	OpReLU      ir.OpName = "nn.relu"
	OpAdd       ir.OpName = "add"
	OpSub       ir.OpName = "subtract"
	OpMul       ir.OpName = "multiply"
	OpDiv       ir.OpName = "divide"
)

// Common layout tags.
const (
	NCHW = layouts.Layout("NCHW")
	NHWC = layouts.Layout("NHWC")
	OIHW = layouts.Layout("OIHW")
	HWIO = layouts.Layout("HWIO")
	NC   = layouts.Layout("NC")
	OI   = layouts.Layout("OI")
	C    = layouts.Layout("C")
)

// DefaultRegistry returns a registry with every rule in this package. The
// returned map is owned by the caller and can be extended or overridden before
// handing it to layoutinfer.New.
func DefaultRegistry() layoutinfer.Registry {
	registry := layoutinfer.Registry{
		OpConv2D:    Conv2D,
		OpDense:     Dense,
		OpBatchNorm: BatchNorm,
	}
	for _, op := range []ir.OpName{OpAdd, OpSub, OpMul, OpDiv, OpReLU, OpBiasAdd} {
		registry[op] = Elementwise
	}
	return registry
}

// Conv2DAttrs is the attribute payload of an "nn.conv2d" call. Empty layout
// fields take the conventional defaults (NCHW data, OIHW kernel, output
// following data).
type Conv2DAttrs struct {
	Channels     int
	KernelSize   [2]int
	Padding      [2]int
	Strides      [2]int
	DataLayout   layouts.Layout
	KernelLayout layouts.Layout
	OutLayout    layouts.Layout
}

// Conv2D proposes the convolution's preferred layouts: data and output follow
// the attribute's data layout (default NCHW), the kernel follows the kernel
// layout (default OIHW). It declines when the data operand is not rank-4.
func Conv2D(operands []layouts.RelayLayout, operandShapes []shapes.Shape, numArgs int, attrs any) ([]layoutinfer.Proposal, bool) {
	if numArgs != 2 {
		return nil, false
	}
	if err := operandShapes[0].CheckRank(4); err != nil {
		return nil, false
	}
	data, kernel, out := NCHW, OIHW, layouts.Undef
	if conv, ok := attrs.(*Conv2DAttrs); ok && conv != nil {
		if conv.DataLayout.Defined() {
			data = conv.DataLayout
		}
		if conv.KernelLayout.Defined() {
			kernel = conv.KernelLayout
		}
		out = conv.OutLayout
	}
	if !out.Defined() {
		out = data
	}
	return []layoutinfer.Proposal{
		{Operand: 0, Layout: layouts.TensorLayout{Layout: data}},
		{Operand: 1, Layout: layouts.TensorLayout{Layout: kernel}},
		{Operand: numArgs, Layout: layouts.TensorLayout{Layout: out}},
	}, true
}

// DenseAttrs is the attribute payload of an "nn.dense" call.
type DenseAttrs struct {
	Units int
}

// Dense proposes NC for the rank-2 data and output, and OI for the weight.
func Dense(operands []layouts.RelayLayout, operandShapes []shapes.Shape, numArgs int, attrs any) ([]layoutinfer.Proposal, bool) {
	if numArgs != 2 {
		return nil, false
	}
	if err := operandShapes[0].CheckRank(2); err != nil {
		return nil, false
	}
	return []layoutinfer.Proposal{
		{Operand: 0, Layout: layouts.TensorLayout{Layout: NC}},
		{Operand: 1, Layout: layouts.TensorLayout{Layout: OI}},
		{Operand: numArgs, Layout: layouts.TensorLayout{Layout: NC}},
	}, true
}

// BatchNormAttrs is the attribute payload of an "nn.batch_norm" call.
type BatchNormAttrs struct {
	Axis    int
	Epsilon float64
	Center  bool
	Scale   bool
}

// BatchNorm handles the tuple-valued "nn.batch_norm": 5 arguments (data,
// gamma, beta, moving mean, moving variance) and a 3-tuple result (normalized
// data and the two updated statistics). The data and the result's first field
// share a layout -- taken from the data operand when already constrained,
// NCHW otherwise -- and every rank-1 statistics tensor gets the C layout.
func BatchNorm(operands []layouts.RelayLayout, operandShapes []shapes.Shape, numArgs int, attrs any) ([]layoutinfer.Proposal, bool) {
	if numArgs != 5 {
		return nil, false
	}
	result := operandShapes[numArgs]
	if !result.IsTuple() || result.TupleSize() != 3 {
		return nil, false
	}
	data := NCHW
	if current, ok := operands[0].(layouts.TensorLayout); ok && current.Layout.Defined() {
		data = current.Layout
	}
	proposals := []layoutinfer.Proposal{
		{Operand: 0, Layout: layouts.TensorLayout{Layout: data}},
		{Operand: numArgs, Layout: layouts.TupleLayout{Fields: []layouts.Layout{data, C, C}}},
	}
	for ii := 1; ii < numArgs; ii++ {
		if operandShapes[ii].Rank() == 1 {
			proposals = append(proposals, layoutinfer.Proposal{Operand: ii, Layout: layouts.TensorLayout{Layout: C}})
		}
	}
	return proposals, true
}

// Elementwise propagates an already constrained layout to the remaining
// operands of a layout-agnostic operator (add, multiply, relu, ...): the first
// defined tensor layout -- scanning the arguments first, then the result --
// is proposed for every operand still Undef. Already constrained operands are
// left alone, which keeps the rule monotone. It declines while no operand is
// constrained yet.
func Elementwise(operands []layouts.RelayLayout, operandShapes []shapes.Shape, numArgs int, attrs any) ([]layoutinfer.Proposal, bool) {
	target := layouts.Undef
	targetRank := 0
	for ii, operand := range operands {
		if tensor, ok := operand.(layouts.TensorLayout); ok && tensor.Layout.Defined() {
			target = tensor.Layout
			targetRank = operandShapes[ii].Rank()
			break
		}
	}
	if !target.Defined() {
		return nil, false
	}
	var proposals []layoutinfer.Proposal
	for ii, operand := range operands {
		tensor, ok := operand.(layouts.TensorLayout)
		if !ok || tensor.Layout.Defined() {
			continue
		}
		// Only operands of the same rank can share the axis ordering;
		// broadcast operands of lower rank carry no constraint here.
		if operandShapes[ii].Rank() != targetRank {
			continue
		}
		proposals = append(proposals, layoutinfer.Proposal{Operand: ii, Layout: layouts.TensorLayout{Layout: target}})
	}
	return proposals, true
}
