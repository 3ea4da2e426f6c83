// Package ram implements the Relational Algebra Machine intermediate
// representation: a tree of condition, expression, relational
// operation, control and I/O nodes (spec.md §2(1), §4.1).
//
// Every node is immutable once attached to its parent. Transformers
// build replacement subtrees and splice them rather than mutating in
// place, so that condition/expression-level analyses (package
// ram/analysis) can be rebuilt cheaply between passes.
package ram

import "ramlvm/internal/symbol"

// TupleID names a tuple variable introduced by a Scan, IndexScan,
// UnpackRecord or Aggregate. Nested scans assign identifiers
// monotonically outward-to-inward: a condition referencing identifier
// k is safe to evaluate as soon as scan k is open (spec.md §4.1).
type TupleID int

// StorageKind selects the index engine backing a relation, fixed for
// the relation's lifetime once chosen at Create time (spec.md §3).
type StorageKind uint8

const (
	StorageBTree StorageKind = iota
	StorageBrie
	StorageEqrel
	StorageDirect
)

func (k StorageKind) String() string {
	switch k {
	case StorageBTree:
		return "btree"
	case StorageBrie:
		return "brie"
	case StorageEqrel:
		return "eqrel"
	case StorageDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// ---- Expressions ----------------------------------------------------

// Expression is a node producing one Value when evaluated.
type Expression interface {
	isExpression()
	String() string
}

type UnaryOp uint8

const (
	OpNeg UnaryOp = iota
	OpBNot
	OpLNot
	OpOrd
	OpStrlen
	OpToNumber
	OpToString
)

type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpExp
	OpMod
	OpBAnd
	OpBOr
	OpBXor
	OpLAnd
	OpLOr
	OpMax
	OpMin
	OpCat
)

// NumberConstant is a literal machine-word value.
type NumberConstant struct{ Value Value }

// TupleElement reads environment[Tuple][Element] (spec.md §4.5
// "Element access", opcode ElementAccess).
type TupleElement struct {
	Tuple   TupleID
	Element int
}

// AutoIncrement reads and increments the process-wide counter
// (spec.md §4.5 "Auto-increment").
type AutoIncrement struct{}

// UnaryOperator applies a monomorphic unary opcode to Operand.
type UnaryOperator struct {
	Op      UnaryOp
	Operand Expression
}

// BinaryOperator applies a monomorphic binary opcode to LHS, RHS.
type BinaryOperator struct {
	Op       BinaryOp
	LHS, RHS Expression
}

// UserDefinedOperator calls an externally registered functor.
type UserDefinedOperator struct {
	Name symbol.ID
	Args []Expression
}

// PackRecord builds a record from Args and returns its (hash-consed)
// record-id, via the record pool (spec.md §3 "Record Pool").
type PackRecord struct {
	Args []Expression
}

// SubroutineArgument reads a positional argument passed into a
// subroutine-style query invocation.
type SubroutineArgument struct{ Index int }

func (*NumberConstant) isExpression()      {}
func (*TupleElement) isExpression()        {}
func (*AutoIncrement) isExpression()       {}
func (*UnaryOperator) isExpression()       {}
func (*BinaryOperator) isExpression()      {}
func (*UserDefinedOperator) isExpression() {}
func (*PackRecord) isExpression()          {}
func (*SubroutineArgument) isExpression()  {}

// ---- Conditions -------------------------------------------------------

// Condition is a node producing a boolean when evaluated.
type Condition interface {
	isCondition()
	String() string
}

type CompareOp uint8

const (
	CmpEQ CompareOp = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
	CmpMatch
	CmpNotMatch
	CmpContains
	CmpNotContains
)

// True is the trivially-satisfied condition.
type True struct{}

// Conjunction is logical AND of two conditions.
type Conjunction struct{ LHS, RHS Condition }

// Negation is logical NOT of a condition.
type Negation struct{ Operand Condition }

// Constraint is a monomorphic binary comparison between expressions.
type Constraint struct {
	Op       CompareOp
	LHS, RHS Expression
}

// EmptinessCheck is true iff the named relation has zero tuples.
type EmptinessCheck struct{ Relation symbol.ID }

// ExistenceCheck is true iff the named relation contains a tuple
// matching Pattern (nil entries are unbound / wildcard).
type ExistenceCheck struct {
	Relation symbol.ID
	Pattern  []Expression
}

// ProvenanceExistenceCheck extends ExistenceCheck with proof-tree
// level bookkeeping used when provenance tracking is enabled
// (spec.md §4.5).
type ProvenanceExistenceCheck struct {
	ExistenceCheck
	Level Expression
}

func (*True) isCondition()                     {}
func (*Conjunction) isCondition()               {}
func (*Negation) isCondition()                  {}
func (*Constraint) isCondition()                {}
func (*EmptinessCheck) isCondition()             {}
func (*ExistenceCheck) isCondition()             {}
func (*ProvenanceExistenceCheck) isCondition()   {}

// Conj folds a, b, more... into a right-leaning Conjunction tree, or
// returns True{} for zero conditions.
func Conj(conds ...Condition) Condition {
	if len(conds) == 0 {
		return &True{}
	}
	result := conds[len(conds)-1]
	for i := len(conds) - 2; i >= 0; i-- {
		result = &Conjunction{LHS: conds[i], RHS: result}
	}
	return result
}

// ---- Relational operations --------------------------------------------

// Operation is a node in the nested relational-algebra tree beneath a
// Query: scan, index-scan, filter, project, aggregate, unpack-record.
type Operation interface {
	isOperation()
}

// Scan iterates every tuple of Relation, binding it to TupleID, and
// runs Body for each (spec.md §4.4 "Scan lowering").
type Scan struct {
	Relation symbol.ID
	Tuple    TupleID
	Body     Operation
}

// IndexScan iterates only tuples of Relation matching Pattern (nil
// entries unbound), binding matches to TupleID (spec.md §4.3
// "MakeIndex", §4.4 "IndexScan(R, pattern)").
type IndexScan struct {
	Relation symbol.ID
	Tuple    TupleID
	Pattern  []Expression
	Body     Operation
}

// Filter runs Body only if Condition holds. RAM invariant: every
// Filter carries exactly one condition (spec.md §4.1) — conjunctions
// must already be fully split before reaching a Filter node.
type Filter struct {
	Condition Condition
	Body      Operation
}

// Project evaluates Values, assembles a tuple and inserts it into
// Relation (set semantics: insertion is idempotent).
type Project struct {
	Values   []Expression
	Relation symbol.ID
}

// UnpackRecord reads the record named by Expr from the record pool,
// binds its Arity fields to TupleID, and runs Body.
type UnpackRecord struct {
	Expr  Expression
	Arity int
	Tuple TupleID
	Body  Operation
}

type AggregateFunc uint8

const (
	AggCount AggregateFunc = iota
	AggSum
	AggMin
	AggMax
)

// Aggregate opens an inner scan over Relation restricted by Pattern,
// evaluates Target for each candidate, reduces with Function, and runs
// Body with the reduced value available (spec.md §4.4 "Aggregate
// lowering").
type Aggregate struct {
	Function AggregateFunc
	Relation symbol.ID
	Tuple    TupleID
	Pattern  []Expression
	Target   Expression
	Body     Operation
}

func (*Scan) isOperation()         {}
func (*IndexScan) isOperation()    {}
func (*Filter) isOperation()       {}
func (*Project) isOperation()      {}
func (*UnpackRecord) isOperation() {}
func (*Aggregate) isOperation()    {}

// ---- Control & I/O statements ------------------------------------------

// Statement is a top-level, sequenced node: control flow or I/O.
type Statement interface {
	isStatement()
}

// Sequence runs each Statement in order.
type Sequence struct{ Statements []Statement }

// abstractParallel is the marker embedded by control nodes that may
// run their children on independent worker threads (mirrors
// original_source/src/ram/AbstractParallel.h).
type abstractParallel struct{}

// Parallel runs each Statement as an independent alternative; see
// spec.md §4.5 "Parallel block" for the ordering/merge contract.
type Parallel struct {
	abstractParallel
	Statements []Statement
}

// Loop repeats Body until an Exit inside it fires (spec.md §4.4
// "Semi-naive loop").
type Loop struct{ Body Statement }

// Exit evaluates Condition; when true, control leaves the nearest
// enclosing Loop.
type Exit struct{ Condition Condition }

// Stratum brackets one maximal set of mutually recursive relations
// evaluated together; closes with ResetIterationNumber (spec.md §4.4).
type Stratum struct {
	Body  Statement
	Level int
}

// Query runs a single relational-operation tree (the Root of a nested
// Scan/IndexScan/Filter/.../Project chain).
type Query struct{ Root Operation }

// Create allocates relation Relation with fixed Arity and the given
// StorageKind, immutable for the relation's lifetime. Re-creating an
// existing name is fatal (spec.md §4.5 "Create").
type Create struct {
	Relation       symbol.ID
	Arity          int
	Storage        StorageKind
	AttributeNames []symbol.ID
	AttributeTypes []symbol.ID
}

// Clear empties Relation but retains its index structures.
type Clear struct{ Relation symbol.ID }

// Drop destroys Relation and its indexes.
type Drop struct{ Relation symbol.ID }

// Load runs the externally-supplied directive IOIndex to populate
// Relation (spec.md §6 "I/O directives").
type Load struct {
	Relation symbol.ID
	IOIndex  int
}

// Store runs the externally-supplied directive IOIndex to write out
// Relation.
type Store struct {
	Relation symbol.ID
	IOIndex  int
}

// Merge bulk-inserts every tuple of Source into Target.
type Merge struct{ Target, Source symbol.ID }

// Swap exchanges the contents of two relations atomically.
type Swap struct{ A, B symbol.ID }

// Fact inserts one literal tuple (evaluated from Values, which must be
// const-value expressions) into Relation.
type Fact struct {
	Relation symbol.ID
	Values   []Expression
}

// LogSize records Relation's cardinality under Message.
type LogSize struct {
	Relation symbol.ID
	Message  symbol.ID
}

// LogTimer records the wall-clock span of Body, attributed to
// Relation under Message.
type LogTimer struct {
	Message  symbol.ID
	Relation symbol.ID
	Body     Statement
}

// DebugInfo annotates Body with a source-location Text for profiling.
type DebugInfo struct {
	Text symbol.ID
	Body Statement
}

func (*Sequence) isStatement()  {}
func (*Parallel) isStatement()  {}
func (*Loop) isStatement()      {}
func (*Exit) isStatement()      {}
func (*Stratum) isStatement()   {}
func (*Query) isStatement()     {}
func (*Create) isStatement()    {}
func (*Clear) isStatement()     {}
func (*Drop) isStatement()      {}
func (*Load) isStatement()      {}
func (*Store) isStatement()     {}
func (*Merge) isStatement()     {}
func (*Swap) isStatement()      {}
func (*Fact) isStatement()      {}
func (*LogSize) isStatement()   {}
func (*LogTimer) isStatement()  {}
func (*DebugInfo) isStatement() {}

// Program is the root of a RAM translation unit: the symbol table plus
// the top-level sequenced Main statement (spec.md §3 "LVM Program").
type Program struct {
	Symbols *symbol.Table
	Main    Statement
}
