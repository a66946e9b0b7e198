// Package ast defines the PrintScript AST node types.
package ast

import "fmt"

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	Offset    int    `json:"offset"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartCol)
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// BinaryOp represents a binary operator.
type BinaryOp string

const (
	OpAdd  BinaryOp = "+"
	OpSub  BinaryOp = "-"
	OpMul  BinaryOp = "*"
	OpDiv  BinaryOp = "/"
	OpGt   BinaryOp = ">"
	OpLt   BinaryOp = "<"
	OpGtEq BinaryOp = ">="
	OpLtEq BinaryOp = "<="
	OpEqEq BinaryOp = "=="
	OpNeq  BinaryOp = "!="
)

// IsComparison reports whether op yields a boolean.
func (op BinaryOp) IsComparison() bool {
	switch op {
	case OpGt, OpLt, OpGtEq, OpLtEq, OpEqEq, OpNeq:
		return true
	}
	return false
}

// Modifier is the binding keyword of a variable declaration.
type Modifier string

const (
	ModConst Modifier = "const"
	ModLet   Modifier = "let"
	ModVar   Modifier = "var"
)

// TypeName is a declared variable type. The zero value means "not declared".
type TypeName string

const (
	TypeNone    TypeName = ""
	TypeNumber  TypeName = "number"
	TypeString  TypeName = "string"
	TypeBoolean TypeName = "boolean"
)

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Literal Expressions ---

type NumberLiteral struct {
	Span  Span
	Value float64
	Raw   string
}

func (n *NumberLiteral) Kind() string   { return "NumberLiteral" }
func (n *NumberLiteral) NodeSpan() Span { return n.Span }
func (n *NumberLiteral) exprNode()      {}

// StringLiteral keeps both the decoded value and the lexeme as written,
// quotes included.
type StringLiteral struct {
	Span  Span
	Value string
	Raw   string
}

func (n *StringLiteral) Kind() string   { return "StringLiteral" }
func (n *StringLiteral) NodeSpan() Span { return n.Span }
func (n *StringLiteral) exprNode()      {}

type BoolLiteral struct {
	Span  Span
	Value bool
}

func (n *BoolLiteral) Kind() string   { return "BoolLiteral" }
func (n *BoolLiteral) NodeSpan() Span { return n.Span }
func (n *BoolLiteral) exprNode()      {}

// --- Identifiers ---

type Identifier struct {
	Span Span
	Name string
}

func (n *Identifier) Kind() string   { return "Identifier" }
func (n *Identifier) NodeSpan() Span { return n.Span }
func (n *Identifier) exprNode()      {}

// --- Operators ---

type BinaryExpr struct {
	Span  Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *BinaryExpr) Kind() string   { return "BinaryExpr" }
func (n *BinaryExpr) NodeSpan() Span { return n.Span }
func (n *BinaryExpr) exprNode()      {}

// --- 1.1: input ---

type ReadInputExpr struct {
	Span   Span
	Prompt Expr
}

func (n *ReadInputExpr) Kind() string   { return "ReadInputExpr" }
func (n *ReadInputExpr) NodeSpan() Span { return n.Span }
func (n *ReadInputExpr) exprNode()      {}

// --- Statements ---

type VarDecl struct {
	Span     Span
	Modifier Modifier
	Name     string
	NameSpan Span
	Type     TypeName
	Init     Expr // nil when the declaration has no initializer
}

func (n *VarDecl) Kind() string   { return "VarDecl" }
func (n *VarDecl) NodeSpan() Span { return n.Span }
func (n *VarDecl) stmtNode()      {}

type AssignStmt struct {
	Span   Span
	Target *Identifier
	Value  Expr
}

func (n *AssignStmt) Kind() string   { return "AssignStmt" }
func (n *AssignStmt) NodeSpan() Span { return n.Span }
func (n *AssignStmt) stmtNode()      {}

type PrintStmt struct {
	Span Span
	Arg  Expr
}

func (n *PrintStmt) Kind() string   { return "PrintStmt" }
func (n *PrintStmt) NodeSpan() Span { return n.Span }
func (n *PrintStmt) stmtNode()      {}

type ExprStmt struct {
	Span Span
	Expr Expr
}

func (n *ExprStmt) Kind() string   { return "ExprStmt" }
func (n *ExprStmt) NodeSpan() Span { return n.Span }
func (n *ExprStmt) stmtNode()      {}

// --- 1.1: control flow ---

type Block struct {
	Span       Span
	Statements []Stmt
}

func (n *Block) Kind() string   { return "Block" }
func (n *Block) NodeSpan() Span { return n.Span }

type IfStmt struct {
	Span Span
	Cond Expr
	Then *Block
	Else *Block // nil without an else branch
}

func (n *IfStmt) Kind() string   { return "IfStmt" }
func (n *IfStmt) NodeSpan() Span { return n.Span }
func (n *IfStmt) stmtNode()      {}

// --- Program ---

type Program struct {
	Span       Span
	Statements []Stmt
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
