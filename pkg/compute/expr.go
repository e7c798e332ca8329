// Copyright 2024-2025 vecdb
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package compute

import (
	"fmt"
	"strings"

	"github.com/huandu/go-clone"
	"github.com/xlab/treeprint"

	"github.com/vecdb/lanescan/pkg/chunk"
	"github.com/vecdb/lanescan/pkg/common"
)

type ET int

const (
	ET_Column ET = iota //column
	ET_Const
	ET_Func
)

type ET_SubTyp int

const (
	ET_Invalid ET_SubTyp = iota
	ET_Equal
	ET_NotEqual
	ET_Greater
	ET_GreaterEqual
	ET_Less
	ET_LessEqual
	ET_And
	ET_Or
	ET_Like
	ET_NotLike
	ET_Cast
)

func (et ET_SubTyp) String() string {
	switch et {
	case ET_Equal:
		return "="
	case ET_NotEqual:
		return "<>"
	case ET_Greater:
		return ">"
	case ET_GreaterEqual:
		return ">="
	case ET_Less:
		return "<"
	case ET_LessEqual:
		return "<="
	case ET_And:
		return "and"
	case ET_Or:
		return "or"
	case ET_Like:
		return "like"
	case ET_NotLike:
		return "not like"
	case ET_Cast:
		return "cast"
	default:
		panic(fmt.Sprintf("usp %d", int(et)))
	}
}

func (et ET_SubTyp) IsComparison() bool {
	switch et {
	case ET_Equal, ET_NotEqual, ET_Greater, ET_GreaterEqual, ET_Less, ET_LessEqual:
		return true
	default:
		return false
	}
}

// Expr is a predicate or operand node. The operand kind is the tag:
// ET_Column reads a table column, ET_Const holds a literal, ET_Func is
// everything evaluated from children.
type Expr struct {
	Typ     ET
	SubTyp  ET_SubTyp
	DataTyp common.LType

	Children []*Expr

	ColRef     int    // column position in the scanned table
	Name       string // column
	ConstValue *chunk.Value
	Nullable   bool // the operand may produce null
}

func NewColumnRef(colIdx int, name string, typ common.LType, nullable bool) *Expr {
	return &Expr{
		Typ:      ET_Column,
		DataTyp:  typ,
		ColRef:   colIdx,
		Name:     name,
		Nullable: nullable,
	}
}

func NewConst(val *chunk.Value) *Expr {
	return &Expr{
		Typ:        ET_Const,
		DataTyp:    val.Typ,
		ConstValue: val,
		Nullable:   val.IsNull,
	}
}

func NewComparison(subTyp ET_SubTyp, left, right *Expr) *Expr {
	return &Expr{
		Typ:      ET_Func,
		SubTyp:   subTyp,
		DataTyp:  common.BooleanType(),
		Children: []*Expr{left, right},
		Nullable: left.Nullable || right.Nullable,
	}
}

func NewConjunction(subTyp ET_SubTyp, children ...*Expr) *Expr {
	nullable := false
	for _, child := range children {
		nullable = nullable || child.Nullable
	}
	return &Expr{
		Typ:      ET_Func,
		SubTyp:   subTyp,
		DataTyp:  common.BooleanType(),
		Children: children,
		Nullable: nullable,
	}
}

func NewCast(child *Expr, target common.LType) *Expr {
	return &Expr{
		Typ:      ET_Func,
		SubTyp:   ET_Cast,
		DataTyp:  target,
		Children: []*Expr{child},
		Nullable: child.Nullable,
	}
}

func (e *Expr) IsNull() bool {
	return e.Typ == ET_Const && e.ConstValue.IsNull
}

func (e *Expr) String() string {
	switch e.Typ {
	case ET_Column:
		return e.Name
	case ET_Const:
		return e.ConstValue.String()
	case ET_Func:
		switch e.SubTyp {
		case ET_Cast:
			return fmt.Sprintf("cast(%s as %s)", e.Children[0], e.DataTyp)
		case ET_And, ET_Or:
			parts := make([]string, 0, len(e.Children))
			for _, child := range e.Children {
				parts = append(parts, child.String())
			}
			return "(" + strings.Join(parts, " "+e.SubTyp.String()+" ") + ")"
		default:
			return fmt.Sprintf("%s %s %s", e.Children[0], e.SubTyp, e.Children[1])
		}
	default:
		panic("usp")
	}
}

func (e *Expr) Print(tree treeprint.Tree) {
	switch e.Typ {
	case ET_Column:
		tree.AddNode(fmt.Sprintf("column(%d %s %s)", e.ColRef, e.Name, e.DataTyp))
	case ET_Const:
		tree.AddNode(fmt.Sprintf("const(%s %s)", e.ConstValue, e.DataTyp))
	case ET_Func:
		branch := tree.AddBranch(e.SubTyp.String())
		for _, child := range e.Children {
			child.Print(branch)
		}
	default:
		panic("usp")
	}
}

func copyExpr(e *Expr) *Expr {
	return clone.Clone(e).(*Expr)
}

func copyExprs(exprs ...*Expr) []*Expr {
	ret := make([]*Expr, 0, len(exprs))
	for _, e := range exprs {
		ret = append(ret, copyExpr(e))
	}
	return ret
}
