// Package formula evaluates scoring formulas: arithmetic over a fixed set of
// variables and whitelisted math functions. Anything else is rejected when
// the formula is parsed.
package formula

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ErrInvalidFormula is wrapped by every parse error.
var ErrInvalidFormula = errors.New("invalid formula")

// ErrEvaluation is wrapped by every evaluation error.
var ErrEvaluation = errors.New("formula evaluation failed")

// Variables are the names a scoring formula may reference.
var Variables = []string{"k", "c", "a", "b"}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

type function struct {
	minArgs, maxArgs int // maxArgs < 0 means variadic
	fn               func(args []float64) float64
}

var functions = map[string]function{
	"min": {1, -1, func(args []float64) float64 {
		m := args[0]
		for _, v := range args[1:] {
			m = math.Min(m, v)
		}
		return m
	}},
	"max": {1, -1, func(args []float64) float64 {
		m := args[0]
		for _, v := range args[1:] {
			m = math.Max(m, v)
		}
		return m
	}},
	"sqrt":  {1, 1, func(args []float64) float64 { return math.Sqrt(args[0]) }},
	"exp":   {1, 1, func(args []float64) float64 { return math.Exp(args[0]) }},
	"floor": {1, 1, func(args []float64) float64 { return math.Floor(args[0]) }},
	"ceil":  {1, 1, func(args []float64) float64 { return math.Ceil(args[0]) }},
	"abs":   {1, 1, func(args []float64) float64 { return math.Abs(args[0]) }},
	"round": {1, 1, func(args []float64) float64 { return math.RoundToEven(args[0]) }},
	"pow":   {2, 2, func(args []float64) float64 { return math.Pow(args[0], args[1]) }},
	"log": {1, 2, func(args []float64) float64 {
		if len(args) == 2 {
			return math.Log(args[0]) / math.Log(args[1])
		}
		return math.Log(args[0])
	}},
}

// Functions lists the whitelisted function names.
func Functions() []string {
	names := make([]string, 0, len(functions))
	for name := range functions {
		names = append(names, name)
	}
	return names
}

// Formula is a parsed, validated expression.
type Formula struct {
	source string
	root   node
}

// Parse validates src. An empty formula parses to nil with no error; callers
// treat it as "conkers".
func Parse(src string) (*Formula, error) {
	if strings.TrimSpace(src) == "" {
		return nil, nil
	}
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q", ErrInvalidFormula, p.peek().text)
	}
	return &Formula{source: src, root: root}, nil
}

// Validate reports whether src is an acceptable formula.
func Validate(src string) error {
	_, err := Parse(src)
	return err
}

// String returns the source text.
func (f *Formula) String() string {
	return f.source
}

// Eval evaluates the formula with the given variable bindings. Unbound
// variables evaluate to zero.
func (f *Formula) Eval(vars map[string]float64) (float64, error) {
	v, err := f.root.eval(vars)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: result is not finite", ErrEvaluation)
	}
	return v, nil
}

// Tokens

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

func tokenize(src string) ([]token, error) {
	var tokens []token
	runes := []rune(src)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			if j < len(runes) && (runes[j] == 'e' || runes[j] == 'E') {
				k := j + 1
				if k < len(runes) && (runes[k] == '+' || runes[k] == '-') {
					k++
				}
				if k < len(runes) && unicode.IsDigit(runes[k]) {
					for k < len(runes) && unicode.IsDigit(runes[k]) {
						k++
					}
					j = k
				}
			}
			text := string(runes[i:j])
			n, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q", ErrInvalidFormula, text)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: n})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
				j++
			}
			tokens = append(tokens, token{kind: tokIdent, text: string(runes[i:j])})
			i = j
		case r == '*' && i+1 < len(runes) && runes[i+1] == '*':
			tokens = append(tokens, token{kind: tokOp, text: "**"})
			i += 2
		case strings.ContainsRune("+-*/", r):
			tokens = append(tokens, token{kind: tokOp, text: string(r)})
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "("})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")"})
			i++
		case r == ',':
			tokens = append(tokens, token{kind: tokComma, text: ","})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q", ErrInvalidFormula, r)
		}
	}
	return append(tokens, token{kind: tokEOF, text: "end of formula"}), nil
}

// Parser

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) parseSum() (node, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOp && (t.text == "+" || t.text == "-"); t = p.peek() {
		p.next()
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		left = binary{op: t.text, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseProduct() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for t := p.peek(); t.kind == tokOp && (t.text == "*" || t.text == "/"); t = p.peek() {
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binary{op: t.text, left: left, right: right}
	}
	return left, nil
}

// Unary minus binds looser than **, so -2**2 is -(2**2).
func (p *parser) parseUnary() (node, error) {
	if t := p.peek(); t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			return negate{operand: operand}, nil
		}
		return operand, nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind == tokOp && t.text == "**" {
		p.next()
		exponent, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return binary{op: "**", left: base, right: exponent}, nil
	}
	return base, nil
}

func (p *parser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return number(t.num), nil
	case tokLParen:
		inner, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("%w: missing )", ErrInvalidFormula)
		}
		return inner, nil
	case tokIdent:
		if p.peek().kind == tokLParen {
			return p.parseCall(t.text)
		}
		for _, v := range Variables {
			if v == t.text {
				return variable(t.text), nil
			}
		}
		if c, ok := constants[t.text]; ok {
			return number(c), nil
		}
		return nil, fmt.Errorf("%w: unknown name %q", ErrInvalidFormula, t.text)
	}
	return nil, fmt.Errorf("%w: unexpected %q", ErrInvalidFormula, t.text)
}

func (p *parser) parseCall(name string) (node, error) {
	fn, ok := functions[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown function %q", ErrInvalidFormula, name)
	}
	p.next() // (
	var args []node
	if p.peek().kind != tokRParen {
		for {
			arg, err := p.parseSum()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().kind != tokComma {
				break
			}
			p.next()
		}
	}
	if p.next().kind != tokRParen {
		return nil, fmt.Errorf("%w: missing ) after arguments to %s", ErrInvalidFormula, name)
	}
	if len(args) < fn.minArgs || (fn.maxArgs >= 0 && len(args) > fn.maxArgs) {
		return nil, fmt.Errorf("%w: wrong number of arguments to %s", ErrInvalidFormula, name)
	}
	return call{name: name, fn: fn.fn, args: args}, nil
}

// AST

type node interface {
	eval(vars map[string]float64) (float64, error)
}

type number float64

func (n number) eval(map[string]float64) (float64, error) {
	return float64(n), nil
}

type variable string

func (v variable) eval(vars map[string]float64) (float64, error) {
	return vars[string(v)], nil
}

type negate struct {
	operand node
}

func (n negate) eval(vars map[string]float64) (float64, error) {
	v, err := n.operand.eval(vars)
	return -v, err
}

type binary struct {
	op          string
	left, right node
}

func (b binary) eval(vars map[string]float64) (float64, error) {
	l, err := b.left.eval(vars)
	if err != nil {
		return 0, err
	}
	r, err := b.right.eval(vars)
	if err != nil {
		return 0, err
	}
	switch b.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, fmt.Errorf("%w: division by zero", ErrEvaluation)
		}
		return l / r, nil
	case "**":
		return math.Pow(l, r), nil
	}
	return 0, fmt.Errorf("%w: unknown operator %q", ErrEvaluation, b.op)
}

type call struct {
	name string
	fn   func([]float64) float64
	args []node
}

func (c call) eval(vars map[string]float64) (float64, error) {
	values := make([]float64, len(c.args))
	for i, arg := range c.args {
		v, err := arg.eval(vars)
		if err != nil {
			return 0, err
		}
		values[i] = v
	}
	return c.fn(values), nil
}
