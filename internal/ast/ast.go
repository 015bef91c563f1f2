// Package ast implements spec.md §3's tagged AST: a closed sum of
// expression forms plus the EngineConfig/Cell/Pool/FcnDef declarations.
// Each node carries attributes only (no behavior); the type checker
// (internal/analyzer) and evaluator (internal/evaluator) are visitors that
// live outside the node types, per spec.md §9's "Tagged AST" design note.
package ast

import "github.com/animator/pfa/internal/types"

// Location is a document-path breadcrumb ("action[2].let.x") attached to
// nodes for error messages; it carries no semantic weight.
type Location string

// Node is implemented by every AST form, including declaration-only nodes
// (Cell, Pool, FcnDef) that are not expressions.
type Node interface {
	Loc() Location
}

// Expr is implemented by every expression-form node — everything that can
// appear in a Do[] body and therefore gets a type decorated onto it by the
// analyzer.
type Expr interface {
	Node
	exprNode()
}

type base struct {
	Location Location
}

func (b base) Loc() Location { return b.Location }

// ---- literals --------------------------------------------------------

type LiteralNull struct{ base }
type LiteralBoolean struct {
	base
	Value bool
}
type LiteralInt struct {
	base
	Value int32
}
type LiteralLong struct {
	base
	Value int64
}
type LiteralFloat struct {
	base
	Value float32
}
type LiteralDouble struct {
	base
	Value float64
}
type LiteralString struct {
	base
	Value string
}
type LiteralBase64 struct {
	base
	Value []byte
}

// Literal is the general fallback: an arbitrary Avro-typed JSON value
// (fixed/enum literals, or any value whose literal form would otherwise be
// ambiguous).
type Literal struct {
	base
	Type      types.Type
	ValueJSON interface{} // the generic tree, decoded against Type at evaluation time
}

func (LiteralNull) exprNode()    {}
func (LiteralBoolean) exprNode() {}
func (LiteralInt) exprNode()     {}
func (LiteralLong) exprNode()    {}
func (LiteralFloat) exprNode()   {}
func (LiteralDouble) exprNode()  {}
func (LiteralString) exprNode()  {}
func (LiteralBase64) exprNode()  {}
func (Literal) exprNode()        {}

// ---- composite constructors -------------------------------------------

type NewObject struct {
	base
	Fields map[string]Expr
	Type   types.Type
}

type NewArray struct {
	base
	Items []Expr
	Type  types.Type
}

func (NewObject) exprNode() {}
func (NewArray) exprNode()  {}

// ---- control -----------------------------------------------------------

type Do struct {
	base
	Body []Expr
}

type Let struct {
	base
	Assign map[string]Expr
	Order  []string // declaration order, since Go maps don't preserve it
}

type SetVar struct {
	base
	Assign map[string]Expr
	Order  []string
}

type If struct {
	base
	Cond Expr
	Then []Expr
	Else []Expr // nil if absent
}

type CondClause struct {
	If   Expr
	Then []Expr
}

type Cond struct {
	base
	Clauses []CondClause
	Else    []Expr // nil if absent
}

type While struct {
	base
	Cond Expr
	Body []Expr
}

type DoUntil struct {
	base
	Body []Expr
	Cond Expr
}

type For struct {
	base
	Init  map[string]Expr
	Order []string
	Until Expr
	Step  map[string]Expr
	Body  []Expr
	Seq   bool
}

type Foreach struct {
	base
	Name string
	In   Expr
	Body []Expr
	Seq  bool
}

type Forkeyval struct {
	base
	Key  string
	Val  string
	In   Expr
	Body []Expr
}

type CastCase struct {
	As    types.Type
	Named string
	Body  []Expr
}

type CastBlock struct {
	base
	Expr    Expr
	Cases   []CastCase
	Partial bool
}

type IfNotNullBinding struct {
	Name string
	Expr Expr
}

type IfNotNull struct {
	base
	Bindings []IfNotNullBinding
	Then     []Expr
	Else     []Expr
}

type Upcast struct {
	base
	Expr   Expr
	AsType types.Type
}

func (Do) exprNode()        {}
func (Let) exprNode()       {}
func (SetVar) exprNode()    {}
func (If) exprNode()        {}
func (Cond) exprNode()      {}
func (While) exprNode()     {}
func (DoUntil) exprNode()   {}
func (For) exprNode()       {}
func (Foreach) exprNode()   {}
func (Forkeyval) exprNode() {}
func (CastBlock) exprNode() {}
func (IfNotNull) exprNode() {}
func (Upcast) exprNode()    {}

// ---- references ---------------------------------------------------------

type Ref struct {
	base
	Name string
}

func (Ref) exprNode() {}

// ---- access ---------------------------------------------------------

// PathElem is one path-element expression: an integer index, a string
// map-key/field-name, or a union-discriminator expression (spec.md §3).
type PathElem struct {
	Expr Expr
}

type AttrGet struct {
	base
	Expr Expr
	Path []PathElem
}

type AttrTo struct {
	base
	Expr Expr
	Path []PathElem
	To   Expr
}

type CellGet struct {
	base
	Name string
	Path []PathElem
}

type CellTo struct {
	base
	Name string
	Path []PathElem
	To   Expr
}

type PoolGet struct {
	base
	Name string
	Path []PathElem
}

type PoolTo struct {
	base
	Name string
	Path []PathElem
	To   Expr
	Init Expr // nil if absent
}

func (AttrGet) exprNode() {}
func (AttrTo) exprNode()  {}
func (CellGet) exprNode() {}
func (CellTo) exprNode()  {}
func (PoolGet) exprNode() {}
func (PoolTo) exprNode()  {}

// ---- calls ---------------------------------------------------------

type Call struct {
	base
	FcnName string
	Args    []Expr
}

type FcnRef struct {
	base
	Name string // "u.foo" for user functions, bare name for catalog builtins
}

func (Call) exprNode()   {}
func (FcnRef) exprNode() {}

// ---- effects ---------------------------------------------------------

type Doc struct {
	base
	Text string
}

type Error struct {
	base
	Msg  string
	Code *int32
}

type Log struct {
	base
	Args      []Expr
	Namespace string // "" if absent
}

type Emit struct {
	base
	Args []Expr
}

func (Doc) exprNode()   {}
func (Error) exprNode() {}
func (Log) exprNode()   {}
func (Emit) exprNode()  {}

// ---- declarations ---------------------------------------------------------

// Method is one of map/emit/fold.
type Method string

const (
	MethodMap  Method = "map"
	MethodEmit Method = "emit"
	MethodFold Method = "fold"
)

// Cell is a singleton named mutable slot.
type Cell struct {
	Type    types.Type
	InitRaw interface{} // generic-tree-encoded initial value, decoded at bind time
	Shared  bool
}

// Pool is a keyed collection of mutable slots.
type Pool struct {
	Type    types.Type
	InitMap map[string]interface{} // key -> generic-tree-encoded initial value
	Shared  bool
}

// FcnDef is a user function: named parameters, a return type, and a body.
type FcnDef struct {
	Params     []FcnParam
	ReturnType types.Type
	Body       []Expr
}

type FcnParam struct {
	Name string
	Type types.Type
}

// EngineConfig is the top-level, immutable-after-type-check document
// (spec.md §3).
type EngineConfig struct {
	Name       string
	Method     Method
	InputType  types.Type
	OutputType types.Type
	Begin      []Expr
	Action     []Expr
	End        []Expr
	Fcns       map[string]*FcnDef
	Zero       interface{} // generic-tree-encoded, only for method=fold
	HasZero    bool
	Cells      map[string]*Cell
	Pools      map[string]*Pool
	RandSeed   *int64
	Doc        string
	Metadata   map[string]string
	Options    map[string]interface{}
}
