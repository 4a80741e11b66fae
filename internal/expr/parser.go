package expr

import "fmt"

// Program is a compiled expression, reusable across evaluations.
// Compilation is pure; a Program holds no evaluation state.
type Program struct {
	root   node
	source string
}

// Source returns the original expression text.
func (p *Program) Source() string { return p.source }

// Compile parses expression source text into a Program.
func Compile(src string) (*Program, error) {
	p := &parser{lex: newLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	root, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.cur.kind != tokEOF {
		return nil, &Error{Code: ErrParse, Pos: p.cur.pos, Message: fmt.Sprintf("unexpected %s", p.cur)}
	}
	return &Program{root: root, source: src}, nil
}

// maxNestingDepth bounds parser recursion. The step budget only guards
// evaluation; without a compile-time bound, pathologically nested source
// (thousands of parens or unary operators) would blow the goroutine stack
// instead of degrading to a parse diagnostic.
const maxNestingDepth = 256

type parser struct {
	lex   *lexer
	cur   token
	depth int
}

func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > maxNestingDepth {
		return &Error{Code: ErrParse, Pos: pos, Message: "expression nests too deeply"}
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) expect(kind tokenKind, what string) error {
	if p.cur.kind != kind {
		return &Error{Code: ErrParse, Pos: p.cur.pos, Message: fmt.Sprintf("expected %s, got %s", what, p.cur)}
	}
	return p.advance()
}

// Binding powers, loosest to tightest. The ternary sits below || so
// `a || b ? c : d` parses as `(a || b) ? c : d`.
func bindingPower(kind tokenKind) int {
	switch kind {
	case tokQuestion:
		return 1
	case tokOr:
		return 2
	case tokAnd:
		return 3
	case tokEq, tokNe:
		return 4
	case tokLt, tokLe, tokGt, tokGe:
		return 5
	case tokPlus, tokMinus:
		return 6
	case tokStar, tokSlash, tokPercent:
		return 7
	case tokCaret:
		return 8
	default:
		return 0
	}
}

func (p *parser) parseExpr(minBP int) (node, error) {
	if err := p.enter(p.cur.pos); err != nil {
		return nil, err
	}
	defer p.leave()

	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op := p.cur.kind
		bp := bindingPower(op)
		if bp == 0 || bp < minBP {
			return left, nil
		}
		at := p.cur.pos
		if err := p.advance(); err != nil {
			return nil, err
		}

		if op == tokQuestion {
			then, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokColon, `":"`); err != nil {
				return nil, err
			}
			els, err := p.parseExpr(1)
			if err != nil {
				return nil, err
			}
			left = &conditional{at: at, cond: left, then: then, els: els}
			continue
		}

		// ^ is right-associative; everything else left.
		nextBP := bp + 1
		if op == tokCaret {
			nextBP = bp
		}
		right, err := p.parseExpr(nextBP)
		if err != nil {
			return nil, err
		}
		left = &binary{at: at, op: op, left: left, right: right}
	}
}

func (p *parser) parseUnary() (node, error) {
	if err := p.enter(p.cur.pos); err != nil {
		return nil, err
	}
	defer p.leave()

	switch p.cur.kind {
	case tokMinus, tokNot:
		at, op := p.cur.pos, p.cur.kind
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.parsePostfix(&unary{at: at, op: op, operand: operand})
	}
	prim, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parsePostfix(prim)
}

func (p *parser) parsePrimary() (node, error) {
	t := p.cur
	switch t.kind {
	case tokNumber:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &numberLit{at: t.pos, val: t.num}, nil
	case tokString:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &stringLit{at: t.pos, val: t.text}, nil
	case tokIdent:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ident{at: t.pos, name: t.text}, nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, `")"`); err != nil {
			return nil, err
		}
		return inner, nil
	case tokLBracket:
		if err := p.advance(); err != nil {
			return nil, err
		}
		var elems []node
		for p.cur.kind != tokRBracket {
			elem, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
			if p.cur.kind == tokComma {
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
		if err := p.expect(tokRBracket, `"]"`); err != nil {
			return nil, err
		}
		return &arrayLit{at: t.pos, elems: elems}, nil
	default:
		return nil, &Error{Code: ErrParse, Pos: t.pos, Message: fmt.Sprintf("unexpected %s", t)}
	}
}

func (p *parser) parsePostfix(n node) (node, error) {
	for {
		switch p.cur.kind {
		case tokDot:
			if err := p.advance(); err != nil {
				return nil, err
			}
			if p.cur.kind != tokIdent {
				return nil, &Error{Code: ErrParse, Pos: p.cur.pos, Message: fmt.Sprintf("expected member name, got %s", p.cur)}
			}
			n = &member{at: p.cur.pos, obj: n, name: p.cur.text}
			if err := p.advance(); err != nil {
				return nil, err
			}
		case tokLParen:
			at := p.cur.pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			var args []node
			for p.cur.kind != tokRParen {
				arg, err := p.parseExpr(0)
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.cur.kind == tokComma {
					if err := p.advance(); err != nil {
						return nil, err
					}
				}
			}
			if err := p.expect(tokRParen, `")"`); err != nil {
				return nil, err
			}
			n = &call{at: at, callee: n, args: args}
		case tokLBracket:
			at := p.cur.pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			idx, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			if err := p.expect(tokRBracket, `"]"`); err != nil {
				return nil, err
			}
			n = &index{at: at, obj: n, idx: idx}
		default:
			return n, nil
		}
	}
}
