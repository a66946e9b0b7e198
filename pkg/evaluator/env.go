package evaluator

import "github.com/printscript-lang/printscript/pkg/ast"

type binding struct {
	value       Value
	constant    bool
	declared    ast.TypeName
	initialized bool
}

// Env is a scoped environment for variable bindings.
// It supports parent-chained lookup for lexical scoping; a child scope
// shadows its parent but never adds bindings to it.
type Env struct {
	bindings map[string]*binding
	parent   *Env
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings: make(map[string]*binding),
		parent:   parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Parent returns the enclosing scope, or nil for the root.
func (e *Env) Parent() *Env {
	return e.parent
}

// Declare binds name in this scope. A nil val leaves the variable
// uninitialized.
func (e *Env) Declare(name string, val Value, constant bool, declared ast.TypeName) {
	e.bindings[name] = &binding{
		value:       val,
		constant:    constant,
		declared:    declared,
		initialized: val != nil,
	}
}

// lookup finds the innermost binding for name.
func (e *Env) lookup(name string) *binding {
	for scope := e; scope != nil; scope = scope.parent {
		if b, ok := scope.bindings[name]; ok {
			return b
		}
	}
	return nil
}

// Get looks up an initialized variable by name, traversing parent scopes.
func (e *Env) Get(name string) (Value, bool) {
	b := e.lookup(name)
	if b == nil || !b.initialized {
		return nil, false
	}
	return b.value, true
}

// Has checks whether a variable is declared in this scope or any parent.
func (e *Env) Has(name string) bool {
	return e.lookup(name) != nil
}

// HasLocal checks whether a variable is declared in this scope only.
func (e *Env) HasLocal(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// IsConstant reports whether the innermost binding of name is constant.
func (e *Env) IsConstant(name string) bool {
	b := e.lookup(name)
	return b != nil && b.constant
}
