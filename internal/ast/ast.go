// Package ast defines the AST contract the front end delivers to the
// semantic analyzer (spec.md §3.3, §6.1). The front end itself — lexer and
// parser — lives in internal/lexer and internal/parser; this package only
// fixes the shape of its output so the analyzer, ownership checker, and contract validator
// have a stable structure to walk.
//
// The node shapes are grounded on the teacher's visitor-style AST
// (internal/parser/ast.go's Expr/ExprVisitor pair) generalized from an
// expression-oriented scripting AST to AetherScript's function/module
// structure with ownership-qualified parameters and pre/post metadata.
package ast

// SourceLocation pins a node to a file, line, and column, per §6.1.
type SourceLocation struct {
	File   string
	Line   int
	Column int
	Span   int
}

// Program is the external input's root: a list of modules (§3.3).
type Program struct {
	Modules []*Module
}

// Module contains function definitions, constants, external-function
// declarations, and imports.
type Module struct {
	Name      string
	Imports   []Import
	Constants []*ConstDecl
	Functions []*Function
	Externs   []*ExternFunction
	Location  SourceLocation
}

// Import names another module this one depends on, with an optional
// semver constraint validated against golang.org/x/mod/semver by the
// symbol table (see internal/symbols).
type Import struct {
	Path       string
	Constraint string
	Location   SourceLocation
}

// ConstDecl is a module-level constant.
type ConstDecl struct {
	Name     string
	Type     *TypeSpec
	Value    Expr
	Location SourceLocation
}

// ExternFunction is an externally-linked function signature the MIR
// contract (§6.3) may reference from a Call without a body of its own.
type ExternFunction struct {
	Name     string
	Params   []*Param
	Return   *TypeSpec
	Location SourceLocation
}

// OwnershipKind mirrors types.OwnershipKind at the AST layer, before the
// semantic analyzer has resolved a TypeSpec into an interned *types.Type.
type OwnershipKind int

const (
	OwnedKind OwnershipKind = iota
	BorrowedKind
	BorrowedMutKind
	SharedKind
)

// TypeSpec is a not-yet-resolved type reference as written in source.
type TypeSpec struct {
	// Name is the primitive or record name ("integer", "string", a record
	// identifier, ...); empty for Array/Map/Function specs.
	Name string

	// Ownership is set when this TypeSpec is wrapped in an ownership
	// qualifier (^, &, &mut, ~ in the parenthesized surface syntax).
	HasOwnership bool
	Ownership    OwnershipKind
	Inner        *TypeSpec

	// Array
	Elem   *TypeSpec
	Length int
	IsMap  bool
	Key    *TypeSpec

	// Function
	Params []*TypeSpec
	Return *TypeSpec

	Location SourceLocation
}

// Param is a function parameter: name, type specifier, and whether the
// binding itself is declared mutable (independent of ownership kind).
type Param struct {
	Name     string
	Type     *TypeSpec
	Mutable  bool
	Location SourceLocation
}

// FailureAction says what happens when a precondition/postcondition
// predicate evaluates false, per original_source's FailureAction enum.
type FailureAction int

const (
	AssertFail FailureAction = iota
	ThrowException
	Abort
)

// Condition is one precondition or postcondition entry.
type Condition struct {
	Name          string
	Predicate     Expr
	Message       string
	FailureAction FailureAction
	Location      SourceLocation
}

// ComplexityExpectation carries an opaque complexity-notation string
// (§4.3: "treated as an opaque string").
type ComplexityExpectation struct {
	Value string
}

// PerformanceExpectation requires TargetValue >= 0 (§4.3).
type PerformanceExpectation struct {
	Metric      string
	TargetValue float64
	Context     string
}

// FunctionMetadata is the LLM-oriented annotation block attached to every
// function: intents, complexity hints, and pre/postconditions (§3.3, §4.3).
type FunctionMetadata struct {
	Intent                 string
	AlgorithmHint          string
	Preconditions          []Condition
	Postconditions         []Condition
	ComplexityExpectation  *ComplexityExpectation
	PerformanceExpectation *PerformanceExpectation
	ThreadSafe             bool
	MayBlock               bool
}

// Function is a top-level function definition.
type Function struct {
	Name     string
	Params   []*Param
	Return   *TypeSpec
	Metadata FunctionMetadata
	Body     *Block
	Pure     bool
	Location SourceLocation
}

// Expr is any expression node. Nodes implement Accept for the visitor
// dispatch the semantic analyzer and MIR lowering pass both use, mirroring
// the teacher's ExprVisitor pattern.
type Expr interface {
	Loc() SourceLocation
	Accept(v ExprVisitor) interface{}
}

// Stmt is any statement node.
type Stmt interface {
	Loc() SourceLocation
	Accept(v StmtVisitor) interface{}
}

// Block is a sequence of statements forming a lexical scope (§4.2
// "enter_region/exit_region").
type Block struct {
	Stmts    []Stmt
	Location SourceLocation
}

func (b *Block) Loc() SourceLocation { return b.Location }

// ---- Expressions ----

type IntLiteral struct {
	Value    int64
	Location SourceLocation
}

func (n *IntLiteral) Loc() SourceLocation              { return n.Location }
func (n *IntLiteral) Accept(v ExprVisitor) interface{} { return v.VisitIntLiteral(n) }

type FloatLiteral struct {
	Value    float64
	Location SourceLocation
}

func (n *FloatLiteral) Loc() SourceLocation              { return n.Location }
func (n *FloatLiteral) Accept(v ExprVisitor) interface{} { return v.VisitFloatLiteral(n) }

type BoolLiteral struct {
	Value    bool
	Location SourceLocation
}

func (n *BoolLiteral) Loc() SourceLocation              { return n.Location }
func (n *BoolLiteral) Accept(v ExprVisitor) interface{} { return v.VisitBoolLiteral(n) }

type StringLiteral struct {
	Value    string
	Location SourceLocation
}

func (n *StringLiteral) Loc() SourceLocation              { return n.Location }
func (n *StringLiteral) Accept(v ExprVisitor) interface{} { return v.VisitStringLiteral(n) }

// VarRef references a visible local, parameter, or global by name.
type VarRef struct {
	Name     string
	Location SourceLocation
}

func (n *VarRef) Loc() SourceLocation              { return n.Location }
func (n *VarRef) Accept(v ExprVisitor) interface{} { return v.VisitVarRef(n) }

// Intrinsic covers RETURN_VALUE (postcondition-only) and ARRAY_LENGTH (§3.3).
type IntrinsicKind int

const (
	ReturnValue IntrinsicKind = iota
	ArrayLength
)

type Intrinsic struct {
	Kind     IntrinsicKind
	Operand  Expr // ARRAY_LENGTH's array argument; nil for RETURN_VALUE
	Location SourceLocation
}

func (n *Intrinsic) Loc() SourceLocation              { return n.Location }
func (n *Intrinsic) Accept(v ExprVisitor) interface{} { return v.VisitIntrinsic(n) }

type BinaryExpr struct {
	Op       string
	Left     Expr
	Right    Expr
	Location SourceLocation
}

func (n *BinaryExpr) Loc() SourceLocation              { return n.Location }
func (n *BinaryExpr) Accept(v ExprVisitor) interface{} { return v.VisitBinary(n) }

type UnaryExpr struct {
	Op       string
	Operand  Expr
	Location SourceLocation
}

func (n *UnaryExpr) Loc() SourceLocation              { return n.Location }
func (n *UnaryExpr) Accept(v ExprVisitor) interface{} { return v.VisitUnary(n) }

type CallExpr struct {
	Callee   string
	Args     []Expr
	Location SourceLocation
}

func (n *CallExpr) Loc() SourceLocation              { return n.Location }
func (n *CallExpr) Accept(v ExprVisitor) interface{} { return v.VisitCall(n) }

type IfExpr struct {
	Cond       Expr
	ThenBranch *Block
	ElseBranch *Block // nil when there is no else
	Location   SourceLocation
}

func (n *IfExpr) Loc() SourceLocation              { return n.Location }
func (n *IfExpr) Accept(v ExprVisitor) interface{} { return v.VisitIf(n) }

type FieldAccessExpr struct {
	Object   Expr
	Field    string
	Location SourceLocation
}

func (n *FieldAccessExpr) Loc() SourceLocation              { return n.Location }
func (n *FieldAccessExpr) Accept(v ExprVisitor) interface{} { return v.VisitFieldAccess(n) }

type ArrayAccessExpr struct {
	Array    Expr
	Index    Expr
	Location SourceLocation
}

func (n *ArrayAccessExpr) Loc() SourceLocation              { return n.Location }
func (n *ArrayAccessExpr) Accept(v ExprVisitor) interface{} { return v.VisitArrayAccess(n) }

// ExprVisitor dispatches over every Expr node.
type ExprVisitor interface {
	VisitIntLiteral(*IntLiteral) interface{}
	VisitFloatLiteral(*FloatLiteral) interface{}
	VisitBoolLiteral(*BoolLiteral) interface{}
	VisitStringLiteral(*StringLiteral) interface{}
	VisitVarRef(*VarRef) interface{}
	VisitIntrinsic(*Intrinsic) interface{}
	VisitBinary(*BinaryExpr) interface{}
	VisitUnary(*UnaryExpr) interface{}
	VisitCall(*CallExpr) interface{}
	VisitIf(*IfExpr) interface{}
	VisitFieldAccess(*FieldAccessExpr) interface{}
	VisitArrayAccess(*ArrayAccessExpr) interface{}
}

// ---- Statements ----

type LetStmt struct {
	Name     string
	Mutable  bool
	Type     *TypeSpec // nil when inferred from Value
	Value    Expr
	Location SourceLocation
}

func (n *LetStmt) Loc() SourceLocation              { return n.Location }
func (n *LetStmt) Accept(v StmtVisitor) interface{} { return v.VisitLet(n) }

type AssignStmt struct {
	Target   Expr // VarRef, FieldAccessExpr, or ArrayAccessExpr
	Value    Expr
	Location SourceLocation
}

func (n *AssignStmt) Loc() SourceLocation              { return n.Location }
func (n *AssignStmt) Accept(v StmtVisitor) interface{} { return v.VisitAssign(n) }

type ExprStmt struct {
	Value    Expr
	Location SourceLocation
}

func (n *ExprStmt) Loc() SourceLocation              { return n.Location }
func (n *ExprStmt) Accept(v StmtVisitor) interface{} { return v.VisitExprStmt(n) }

type ReturnStmt struct {
	Value    Expr // nil for `return;` in a void function
	Location SourceLocation
}

func (n *ReturnStmt) Loc() SourceLocation              { return n.Location }
func (n *ReturnStmt) Accept(v StmtVisitor) interface{} { return v.VisitReturn(n) }

type WhileStmt struct {
	Cond     Expr
	Body     *Block
	Location SourceLocation
}

func (n *WhileStmt) Loc() SourceLocation              { return n.Location }
func (n *WhileStmt) Accept(v StmtVisitor) interface{} { return v.VisitWhile(n) }

type BlockStmt struct {
	Body     *Block
	Location SourceLocation
}

func (n *BlockStmt) Loc() SourceLocation              { return n.Location }
func (n *BlockStmt) Accept(v StmtVisitor) interface{} { return v.VisitBlockStmt(n) }

// StmtVisitor dispatches over every Stmt node.
type StmtVisitor interface {
	VisitLet(*LetStmt) interface{}
	VisitAssign(*AssignStmt) interface{}
	VisitExprStmt(*ExprStmt) interface{}
	VisitReturn(*ReturnStmt) interface{}
	VisitWhile(*WhileStmt) interface{}
	VisitBlockStmt(*BlockStmt) interface{}
}
