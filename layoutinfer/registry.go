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

package layoutinfer

import (
	"github.com/relayir/relay/ir"
	"github.com/relayir/relay/types/layouts"
	"github.com/relayir/relay/types/shapes"
)

// Registry maps an operator to its layout inference rule. It is supplied by
// the caller at construction and is read-only to the engine: registering rules
// is the operator library's responsibility (see the rules sub-package for a
// ready-made set). An operator without a rule is not an error -- its calls
// simply contribute no layout information.
type Registry map[ir.OpName]InferLayoutFunc

// Proposal is one layout proposed by an inference rule for one operand of a
// call site. Operand is a position into the operand vector the rule received:
// 0..numArgs-1 name the call's arguments, numArgs names the call itself.
type Proposal struct {
	Operand int
	Layout  layouts.RelayLayout
}

// InferLayoutFunc is a layout inference rule for one operator.
//
// It receives the current layouts of the call's operands -- the arguments
// first, then the call's own result as the last element -- their static
// shapes in the same order, the number of true arguments (so
// operands[numArgs] is always the result), and the call's attribute payload.
//
// It returns the layouts it proposes, if any, and whether it succeeded.
// Returning (nil, true) means "nothing new to propose"; returning false
// declines the call entirely, and any proposals are discarded. A proposal's
// arity must match the operand's static shape, or the engine aborts the run.
//
// Rules must be side-effect-free and safe to invoke repeatedly with
// monotonically refined inputs: at the fixed point a rule must either decline
// or re-propose what is already there, otherwise inference never converges.
type InferLayoutFunc func(operands []layouts.RelayLayout, operandShapes []shapes.Shape, numArgs int, attrs any) ([]Proposal, bool)
