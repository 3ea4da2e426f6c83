// Package iodirective parses the small directive description grammar
// an IOindex resolves to (spec.md §6 "I/O directives"): strings like
//
//	edge : file("edge.facts"), format(tsv)
//	tc   : stdin, format(tsv)
//
// and implements eval.Directives against them — currently TSV over a
// file path or stdin/stdout, the two sources/sinks spec.md §6 names
// ("file, stdin, named pipe"). The grammar is built the same way the
// teacher's grammar package builds the Kanso surface grammar: a
// lexer.MustSimple lexer feeding a participle.MustBuild[T] parser.
package iodirective

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Directive is one parsed IOindex entry: a relation name followed by a
// comma-separated list of key(args) parameters.
type Directive struct {
	Relation string   `@Ident ":"`
	Params   []*Param `@@ { "," @@ }`
}

// Param is a single `name` or `name(args)` clause — file("path"),
// format(tsv), stdin, stdout, delimiter("\t").
type Param struct {
	Name string `@Ident`
	Args []*Arg `[ "(" [ @@ { "," @@ } ] ")" ]`
}

// Arg is one parenthesized argument: a quoted string or a bare
// identifier (format names like tsv/csv aren't quoted).
type Arg struct {
	Str   *string `  @String`
	Ident *string `| @Ident`
}

var directiveLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.\-/]*`},
	{Name: "Punct", Pattern: `[:(),]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

var directiveParser = participle.MustBuild[Directive](
	participle.Lexer(directiveLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
)

// Parse parses one directive description string.
func Parse(description string) (*Directive, error) {
	return directiveParser.ParseString("", description)
}

// Param looks up the first parameter named name, if any.
func (d *Directive) Param(name string) (*Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Arg0 returns a parameter's first argument as plain text, or "" if it
// has none.
func (p *Param) Arg0() string {
	if len(p.Args) == 0 {
		return ""
	}
	a := p.Args[0]
	if a.Str != nil {
		return *a.Str
	}
	if a.Ident != nil {
		return *a.Ident
	}
	return ""
}
