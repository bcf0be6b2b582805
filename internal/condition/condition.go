// Package condition implements the restricted boolean expression grammar
// used by form schemas to guard field visibility. Expressions reference
// previously rendered field values by name and combine comparisons with
// and/or/not. The grammar has no function calls, no indexing and no side
// effects, so schema-supplied strings can never execute arbitrary code.
//
// Grammar:
//
//	expr    = or
//	or      = and { ("or" | "||") and }
//	and     = unary { ("and" | "&&") unary }
//	unary   = ("not" | "!") unary | comparison
//	cmp     = operand [ ("==" | "!=" | "<" | "<=" | ">" | ">=") operand
//	                  | "in" list ]
//	operand = ident | number | string | "true" | "false" | "(" expr ")" | list
//	list    = "[" [ operand { "," operand } ] "]"
package condition

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Expr is a parsed, reusable condition expression.
type Expr struct {
	root node
	src  string
}

// Parse compiles a condition expression. A parse failure is a schema error
// and should be surfaced before any rendering begins.
func Parse(src string) (*Expr, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, fmt.Errorf("condition %q: unexpected token %q", src, p.peek().text)
	}
	return &Expr{root: root, src: src}, nil
}

// Eval evaluates the expression against the given field values. Fields
// absent from vars evaluate as nil: nil equals only nil, and ordered
// comparisons against nil are false.
func (e *Expr) Eval(vars map[string]any) (bool, error) {
	v, err := e.root.eval(vars)
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", e.src, err)
	}
	return truthy(v), nil
}

// Fields returns the sorted set of field names the expression references.
// Schema validation uses this to reject forward references.
func (e *Expr) Fields() []string {
	set := map[string]bool{}
	e.root.collectFields(set)
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// String returns the original expression source.
func (e *Expr) String() string { return e.src }

// --- AST ---

type node interface {
	eval(vars map[string]any) (any, error)
	collectFields(set map[string]bool)
}

type literal struct{ value any }

func (n literal) eval(map[string]any) (any, error) { return n.value, nil }
func (n literal) collectFields(map[string]bool)    {}

type fieldRef struct{ name string }

func (n fieldRef) eval(vars map[string]any) (any, error) { return vars[n.name], nil }
func (n fieldRef) collectFields(set map[string]bool)     { set[n.name] = true }

type listNode struct{ items []node }

func (n listNode) eval(vars map[string]any) (any, error) {
	out := make([]any, len(n.items))
	for i, item := range n.items {
		v, err := item.eval(vars)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (n listNode) collectFields(set map[string]bool) {
	for _, item := range n.items {
		item.collectFields(set)
	}
}

type notNode struct{ operand node }

func (n notNode) eval(vars map[string]any) (any, error) {
	v, err := n.operand.eval(vars)
	if err != nil {
		return nil, err
	}
	return !truthy(v), nil
}

func (n notNode) collectFields(set map[string]bool) { n.operand.collectFields(set) }

type binaryNode struct {
	op          string
	left, right node
}

func (n binaryNode) collectFields(set map[string]bool) {
	n.left.collectFields(set)
	n.right.collectFields(set)
}

func (n binaryNode) eval(vars map[string]any) (any, error) {
	// Short-circuit logical operators before evaluating the right side.
	switch n.op {
	case "and":
		l, err := n.left.eval(vars)
		if err != nil {
			return nil, err
		}
		if !truthy(l) {
			return false, nil
		}
		r, err := n.right.eval(vars)
		if err != nil {
			return nil, err
		}
		return truthy(r), nil
	case "or":
		l, err := n.left.eval(vars)
		if err != nil {
			return nil, err
		}
		if truthy(l) {
			return true, nil
		}
		r, err := n.right.eval(vars)
		if err != nil {
			return nil, err
		}
		return truthy(r), nil
	}

	l, err := n.left.eval(vars)
	if err != nil {
		return nil, err
	}
	r, err := n.right.eval(vars)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case "==":
		return equal(l, r), nil
	case "!=":
		return !equal(l, r), nil
	case "<":
		return compareNumeric(l, r, func(a, b float64) bool { return a < b }), nil
	case "<=":
		return compareNumeric(l, r, func(a, b float64) bool { return a <= b }), nil
	case ">":
		return compareNumeric(l, r, func(a, b float64) bool { return a > b }), nil
	case ">=":
		return compareNumeric(l, r, func(a, b float64) bool { return a >= b }), nil
	case "in":
		return contains(r, l), nil
	default:
		return nil, fmt.Errorf("unknown operator %q", n.op)
	}
}

// --- value semantics ---

// equal checks equality with numeric coercion. nil == nil is true; nil
// compared to anything else is false.
func equal(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			return af == bf
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// compareNumeric applies an ordered comparison. Either side failing to
// coerce to a number makes the comparison false rather than an error, so a
// blank form field simply hides the dependent field.
func compareNumeric(a, b any, cmp func(x, y float64) bool) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return false
	}
	return cmp(af, bf)
}

func contains(collection, item any) bool {
	items, ok := collection.([]any)
	if !ok {
		return false
	}
	for _, candidate := range items {
		if equal(candidate, item) {
			return true
		}
	}
	return false
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	default:
		if f, ok := toFloat(v); ok {
			return f != 0
		}
		return true
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		// Booleans are not numbers; "x > false" should not compare.
		return 0, false
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// --- lexer ---

type tokenKind int

const (
	tokIdent tokenKind = iota
	tokNumber
	tokString
	tokOp
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := rune(src[i])
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '\'' || c == '"':
			quote := src[i]
			j := i + 1
			for j < len(src) && src[j] != quote {
				j++
			}
			if j >= len(src) {
				return nil, fmt.Errorf("condition %q: unterminated string", src)
			}
			toks = append(toks, token{tokString, src[i+1 : j]})
			i = j + 1
		case unicode.IsDigit(c) || (c == '-' && i+1 < len(src) && unicode.IsDigit(rune(src[i+1]))):
			j := i + 1
			for j < len(src) && (unicode.IsDigit(rune(src[j])) || src[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, src[i:j]})
			i = j
		case unicode.IsLetter(c) || c == '_':
			j := i + 1
			for j < len(src) && (unicode.IsLetter(rune(src[j])) || unicode.IsDigit(rune(src[j])) || src[j] == '_') {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j]})
			i = j
		case strings.HasPrefix(src[i:], "==") || strings.HasPrefix(src[i:], "!=") ||
			strings.HasPrefix(src[i:], "<=") || strings.HasPrefix(src[i:], ">=") ||
			strings.HasPrefix(src[i:], "&&") || strings.HasPrefix(src[i:], "||"):
			toks = append(toks, token{tokOp, src[i : i+2]})
			i += 2
		case c == '<' || c == '>' || c == '!':
			toks = append(toks, token{tokOp, string(c)})
			i++
		case c == '(' || c == ')' || c == '[' || c == ']' || c == ',':
			toks = append(toks, token{tokPunct, string(c)})
			i++
		default:
			return nil, fmt.Errorf("condition %q: unexpected character %q", src, c)
		}
	}
	return toks, nil
}

// --- parser ---

type parser struct {
	toks []token
	pos  int
}

func (p *parser) atEnd() bool    { return p.pos >= len(p.toks) }
func (p *parser) peek() token    { return p.toks[p.pos] }
func (p *parser) advance() token { t := p.toks[p.pos]; p.pos++; return t }

func (p *parser) match(kind tokenKind, texts ...string) bool {
	if p.atEnd() || p.toks[p.pos].kind != kind {
		return false
	}
	for _, text := range texts {
		if p.toks[p.pos].text == text {
			p.pos++
			return true
		}
	}
	return false
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(tokIdent, "or") || p.match(tokOp, "||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: "or", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.match(tokIdent, "and") || p.match(tokOp, "&&") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: "and", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.match(tokIdent, "not") || p.match(tokOp, "!") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	if p.match(tokOp, "==", "!=", "<", "<=", ">", ">=") {
		op := p.toks[p.pos-1].text
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: op, left: left, right: right}, nil
	}
	if p.match(tokIdent, "in") {
		right, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		return binaryNode{op: "in", left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) parseOperand() (node, error) {
	if p.atEnd() {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	t := p.peek()
	switch {
	case t.kind == tokNumber:
		p.advance()
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", t.text)
		}
		return literal{value: f}, nil
	case t.kind == tokString:
		p.advance()
		return literal{value: t.text}, nil
	case t.kind == tokIdent && t.text == "true":
		p.advance()
		return literal{value: true}, nil
	case t.kind == tokIdent && t.text == "false":
		p.advance()
		return literal{value: false}, nil
	case t.kind == tokIdent:
		// Keywords can never be field names.
		if t.text == "and" || t.text == "or" || t.text == "not" || t.text == "in" {
			return nil, fmt.Errorf("unexpected keyword %q", t.text)
		}
		p.advance()
		return fieldRef{name: t.text}, nil
	case t.kind == tokPunct && t.text == "(":
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.match(tokPunct, ")") {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil
	case t.kind == tokPunct && t.text == "[":
		p.advance()
		var items []node
		for !p.match(tokPunct, "]") {
			if len(items) > 0 && !p.match(tokPunct, ",") {
				return nil, fmt.Errorf("missing comma in list")
			}
			item, err := p.parseOperand()
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return listNode{items: items}, nil
	default:
		return nil, fmt.Errorf("unexpected token %q", t.text)
	}
}
