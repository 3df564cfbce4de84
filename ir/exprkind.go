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

package ir

// ExprKind identifies the kind of an expression node. The set of kinds is
// closed: analyses dispatch with an exhaustive switch over ExprKind.
type ExprKind int

//go:generate go tool enumer -type=ExprKind -trimprefix=Kind exprkind.go

const (
	// KindInvalid is the zero value, never a valid node kind.
	KindInvalid ExprKind = iota

	// KindVar is a local variable, a leaf carrying a name and a checked shape.
	KindVar

	// KindGlobalVar references a function in the enclosing module by name.
	KindGlobalVar

	// KindConstant is a literal tensor value.
	KindConstant

	// KindTuple groups expressions into a tuple value.
	KindTuple

	// KindTupleGetItem projects one field out of a tuple-valued expression.
	KindTupleGetItem

	// KindOp is an operator reference used as a first-class value.
	KindOp

	// KindCall applies an operator to argument expressions.
	KindCall

	// KindFunction is a lambda: parameters and a body expression.
	KindFunction

	// KindLet binds a variable to a value within a body expression.
	KindLet

	// KindIf is a conditional expression.
	KindIf

	// KindMatch is an ADT pattern match.
	KindMatch

	// KindRefCreate creates a mutable reference cell.
	KindRefCreate

	// KindRefRead reads a mutable reference cell.
	KindRefRead

	// KindRefWrite writes a mutable reference cell.
	KindRefWrite

	// KindConstructor is an ADT constructor reference.
	KindConstructor
)
