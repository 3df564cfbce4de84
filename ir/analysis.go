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

// FreeVars returns the Var nodes that occur free in e, in order of first
// occurrence. Function parameters and Let bindings are bound within their
// scope. Shared sub-expressions are visited once.
//
// The usual use is closing a body over its inputs: Function(FreeVars(body), body).
func FreeVars(e *Expr) []*Expr {
	e.AssertValid()
	fv := &freeVarsVisitor{
		visited: make(map[ExprId]bool),
		bound:   make(map[ExprId]int),
	}
	fv.visit(e)
	return fv.free
}

type freeVarsVisitor struct {
	visited map[ExprId]bool
	bound   map[ExprId]int // Var id -> number of enclosing bindings.
	free    []*Expr
}

func (fv *freeVarsVisitor) visit(e *Expr) {
	if e == nil || fv.visited[e.id] {
		return
	}
	switch e.kind {
	case KindVar:
		if fv.bound[e.id] == 0 {
			fv.visited[e.id] = true
			fv.free = append(fv.free, e)
		}
		return
	case KindFunction:
		fv.visited[e.id] = true
		for _, param := range e.params {
			fv.bound[param.id]++
		}
		fv.visit(e.body)
		for _, param := range e.params {
			fv.bound[param.id]--
		}
		return
	case KindLet:
		fv.visited[e.id] = true
		v, value, body := e.args[0], e.args[1], e.args[2]
		fv.visit(value)
		fv.bound[v.id]++
		fv.visit(body)
		fv.bound[v.id]--
		return
	default:
		fv.visited[e.id] = true
		for _, arg := range e.args {
			fv.visit(arg)
		}
	}
}
