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

package layouts

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"

	"github.com/relayir/relay/types/shapes"
)

func TestLayout(t *testing.T) {
	require.False(t, Undef.Defined())
	require.True(t, Layout("NCHW").Defined())
	require.Equal(t, "undef", Undef.String())
	require.Equal(t, "NCHW", Layout("NCHW").String())
}

func TestTensorLayout(t *testing.T) {
	l := TensorLayout{Layout: "NCHW"}
	require.Equal(t, 1, l.NumOutputs())
	require.Equal(t, []Layout{"NCHW"}, l.Layouts())
	require.Equal(t, "TensorLayout(NCHW)", l.String())

	require.True(t, l.Equal(TensorLayout{Layout: "NCHW"}))
	require.False(t, l.Equal(TensorLayout{Layout: "NHWC"}))
	require.False(t, l.Equal(TupleLayout{Fields: []Layout{"NCHW"}}))
}

func TestTupleLayout(t *testing.T) {
	l := TupleLayout{Fields: []Layout{"NCHW", "C", Undef}}
	require.Equal(t, 3, l.NumOutputs())
	require.Equal(t, []Layout{"NCHW", "C", Undef}, l.Layouts())
	require.Equal(t, "TupleLayout(NCHW, C, undef)", l.String())

	require.True(t, l.Equal(TupleLayout{Fields: []Layout{"NCHW", "C", Undef}}))
	require.False(t, l.Equal(TupleLayout{Fields: []Layout{"NCHW", "C"}}))
	require.False(t, l.Equal(TupleLayout{Fields: []Layout{"NCHW", "C", "C"}}))
	require.False(t, l.Equal(TensorLayout{Layout: "NCHW"}))
}

func TestUndefFor(t *testing.T) {
	tensorShape := shapes.Make(dtypes.Float32, 1, 64, 56, 56)
	require.Equal(t, TensorLayout{Layout: Undef}, UndefFor(tensorShape))

	tupleShape := shapes.MakeTuple([]shapes.Shape{
		shapes.Make(dtypes.Float32, 2),
		shapes.Make(dtypes.Float32, 3),
		shapes.Make(dtypes.Float32, 4),
	})
	def := UndefFor(tupleShape)
	require.Equal(t, 3, def.NumOutputs())
	require.Equal(t, []Layout{Undef, Undef, Undef}, def.Layouts())
}

func TestMatchesShape(t *testing.T) {
	tensorShape := shapes.Make(dtypes.Float32, 2, 3)
	tupleShape := shapes.MakeTuple([]shapes.Shape{shapes.Make(dtypes.Float32, 2), shapes.Make(dtypes.Float32, 3)})

	require.True(t, MatchesShape(TensorLayout{Layout: "NC"}, tensorShape))
	require.False(t, MatchesShape(TupleLayout{Fields: []Layout{"NC"}}, tensorShape))
	require.True(t, MatchesShape(TupleLayout{Fields: []Layout{"NC", "NC"}}, tupleShape))
	require.False(t, MatchesShape(TupleLayout{Fields: []Layout{"NC"}}, tupleShape))
	require.False(t, MatchesShape(TensorLayout{Layout: "NC"}, tupleShape))
}
