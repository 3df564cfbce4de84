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

package rules_test

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"

	"github.com/relayir/relay/ir"
	"github.com/relayir/relay/layoutinfer"
	. "github.com/relayir/relay/layoutinfer/rules"
	"github.com/relayir/relay/types/layouts"
	"github.com/relayir/relay/types/shapes"
)

// TestConv2D mirrors the classic regression setup: conv2d over a
// (1, 64, 56, 56) input, wrapped in a function closed over its free vars.
func TestConv2D(t *testing.T) {
	g := ir.NewGraph("conv2d")
	x := g.Var("x", shapes.Make(dtypes.Float32, 1, 64, 56, 56))
	w := g.Var("weight", shapes.Make(dtypes.Float32, 64, 64, 3, 3))
	conv := g.Call(OpConv2D, &Conv2DAttrs{Channels: 64, KernelSize: [2]int{3, 3}, Padding: [2]int{1, 1}},
		shapes.Make(dtypes.Float32, 1, 64, 56, 56), x, w)
	fn := g.Function(ir.FreeVars(conv), conv)

	li := layoutinfer.New(DefaultRegistry())
	require.NoError(t, li.Infer(fn))

	collected := li.Collect()
	require.Equal(t, []layouts.Layout{NCHW}, collected[x])
	require.Equal(t, []layouts.Layout{OIHW}, collected[w])
	require.Equal(t, []layouts.Layout{NCHW}, collected[conv])
}

func TestConv2DAttrsOverride(t *testing.T) {
	g := ir.NewGraph("conv2d-nhwc")
	x := g.Var("x", shapes.Make(dtypes.Float32, 1, 56, 56, 64))
	w := g.Var("weight", shapes.Make(dtypes.Float32, 3, 3, 64, 64))
	conv := g.Call(OpConv2D, &Conv2DAttrs{DataLayout: NHWC, KernelLayout: HWIO},
		shapes.Make(dtypes.Float32, 1, 56, 56, 64), x, w)

	li := layoutinfer.New(DefaultRegistry())
	require.NoError(t, li.Infer(conv))

	collected := li.Collect()
	require.Equal(t, []layouts.Layout{NHWC}, collected[x])
	require.Equal(t, []layouts.Layout{HWIO}, collected[w])
	require.Equal(t, []layouts.Layout{NHWC}, collected[conv])
}

// TestConv2DPropagation: the conv's output layout flows through the
// layout-agnostic operators that consume it.
func TestConv2DPropagation(t *testing.T) {
	g := ir.NewGraph("conv2d-relu-add")
	shape := shapes.Make(dtypes.Float32, 1, 64, 56, 56)
	x := g.Var("x", shape)
	w := g.Var("weight", shapes.Make(dtypes.Float32, 64, 64, 3, 3))
	conv := g.Call(OpConv2D, &Conv2DAttrs{}, shape, x, w)
	relu := g.Call(OpReLU, nil, shape, conv)
	skip := g.Var("skip", shape)
	sum := g.Call(OpAdd, nil, shape, relu, skip)

	li := layoutinfer.New(DefaultRegistry())
	require.NoError(t, li.Infer(sum))

	collected := li.Collect()
	require.Equal(t, []layouts.Layout{NCHW}, collected[relu])
	require.Equal(t, []layouts.Layout{NCHW}, collected[skip])
	require.Equal(t, []layouts.Layout{NCHW}, collected[sum])
}

func TestDense(t *testing.T) {
	g := ir.NewGraph("dense")
	x := g.Var("x", shapes.Make(dtypes.Float32, 32, 128))
	w := g.Var("weight", shapes.Make(dtypes.Float32, 10, 128))
	dense := g.Call(OpDense, &DenseAttrs{Units: 10}, shapes.Make(dtypes.Float32, 32, 10), x, w)

	li := layoutinfer.New(DefaultRegistry())
	require.NoError(t, li.Infer(dense))

	collected := li.Collect()
	require.Equal(t, []layouts.Layout{NC}, collected[x])
	require.Equal(t, []layouts.Layout{OI}, collected[w])
	require.Equal(t, []layouts.Layout{NC}, collected[dense])
}

// TestBatchNorm: the tuple-valued batch_norm annotates its result with a
// TupleLayout and its statistics arguments with C.
func TestBatchNorm(t *testing.T) {
	g := ir.NewGraph("batch-norm")
	dataShape := shapes.Make(dtypes.Float32, 1, 64, 56, 56)
	statShape := shapes.Make(dtypes.Float32, 64)
	data := g.Var("data", dataShape)
	gamma := g.Var("gamma", statShape)
	beta := g.Var("beta", statShape)
	mean := g.Var("mean", statShape)
	variance := g.Var("var", statShape)
	resultShape := shapes.MakeTuple([]shapes.Shape{dataShape, statShape, statShape})
	bn := g.Call(OpBatchNorm, &BatchNormAttrs{Axis: 1, Epsilon: 1e-5, Center: true, Scale: true},
		resultShape, data, gamma, beta, mean, variance)

	li := layoutinfer.New(DefaultRegistry())
	require.NoError(t, li.Infer(bn))

	collected := li.Collect()
	require.Equal(t, []layouts.Layout{NCHW}, collected[data])
	require.Equal(t, []layouts.Layout{NCHW, C, C}, collected[bn])
	for _, stat := range []*ir.Expr{gamma, beta, mean, variance} {
		require.Equal(t, []layouts.Layout{C}, collected[stat])
	}
}

// TestBatchNormFollowsData: an already constrained data operand wins over the
// NCHW default.
func TestBatchNormFollowsData(t *testing.T) {
	g := ir.NewGraph("batch-norm-nhwc")
	dataShape := shapes.Make(dtypes.Float32, 1, 56, 56, 64)
	statShape := shapes.Make(dtypes.Float32, 64)
	data := g.Var("data", dataShape)
	gamma := g.Var("gamma", statShape)
	beta := g.Var("beta", statShape)
	mean := g.Var("mean", statShape)
	variance := g.Var("var", statShape)
	bn := g.Call(OpBatchNorm, &BatchNormAttrs{Axis: 3},
		shapes.MakeTuple([]shapes.Shape{dataShape, statShape, statShape}), data, gamma, beta, mean, variance)

	li := layoutinfer.New(DefaultRegistry())
	require.NoError(t, li.Seed(map[*ir.Expr]layouts.RelayLayout{
		data: layouts.TensorLayout{Layout: NHWC},
	}))
	require.NoError(t, li.Infer(bn))

	collected := li.Collect()
	require.Equal(t, []layouts.Layout{NHWC}, collected[data])
	require.Equal(t, []layouts.Layout{NHWC, C, C}, collected[bn])
}

func TestElementwiseDeclinesWithoutInformation(t *testing.T) {
	shape := shapes.Make(dtypes.Float32, 2, 3)
	operands := []layouts.RelayLayout{
		layouts.TensorLayout{},
		layouts.TensorLayout{},
		layouts.TensorLayout{},
	}
	operandShapes := []shapes.Shape{shape, shape, shape}
	proposals, ok := Elementwise(operands, operandShapes, 2, nil)
	require.False(t, ok)
	require.Empty(t, proposals)
}

func TestElementwiseSkipsBroadcastOperands(t *testing.T) {
	shape4 := shapes.Make(dtypes.Float32, 1, 64, 56, 56)
	shape1 := shapes.Make(dtypes.Float32, 64)
	operands := []layouts.RelayLayout{
		layouts.TensorLayout{Layout: NCHW},
		layouts.TensorLayout{},
		layouts.TensorLayout{},
	}
	operandShapes := []shapes.Shape{shape4, shape1, shape4}
	proposals, ok := Elementwise(operands, operandShapes, 2, nil)
	require.True(t, ok)
	// The rank-1 bias is skipped; only the result gets the layout.
	require.Equal(t, []layoutinfer.Proposal{{Operand: 2, Layout: layouts.TensorLayout{Layout: NCHW}}}, proposals)
}

func TestConv2DDeclinesNonRank4(t *testing.T) {
	shape2 := shapes.Make(dtypes.Float32, 2, 3)
	operands := []layouts.RelayLayout{layouts.TensorLayout{}, layouts.TensorLayout{}, layouts.TensorLayout{}}
	operandShapes := []shapes.Shape{shape2, shape2, shape2}
	_, ok := Conv2D(operands, operandShapes, 2, nil)
	require.False(t, ok)
}
