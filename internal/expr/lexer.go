package expr

import (
	"strconv"
	"strings"
)

type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer { return &lexer{src: src} }

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	c := l.src[l.pos]
	switch {
	case c >= '0' && c <= '9', c == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]):
		return l.lexNumber()
	case isIdentStart(c):
		return l.lexIdent()
	case c == '"' || c == '\'':
		return l.lexString(c)
	}

	two := ""
	if l.pos+2 <= len(l.src) {
		two = l.src[l.pos : l.pos+2]
	}
	switch two {
	case "==", "!=", "<=", ">=", "&&", "||":
		l.pos += 2
		kinds := map[string]tokenKind{
			"==": tokEq, "!=": tokNe, "<=": tokLe, ">=": tokGe, "&&": tokAnd, "||": tokOr,
		}
		return token{kind: kinds[two], text: two, pos: start}, nil
	}

	l.pos++
	single := map[byte]tokenKind{
		'+': tokPlus, '-': tokMinus, '*': tokStar, '/': tokSlash,
		'%': tokPercent, '^': tokCaret, '(': tokLParen, ')': tokRParen,
		'[': tokLBracket, ']': tokRBracket, ',': tokComma, '.': tokDot,
		'?': tokQuestion, ':': tokColon, '<': tokLt, '>': tokGt, '!': tokNot,
	}
	if kind, ok := single[c]; ok {
		return token{kind: kind, text: string(c), pos: start}, nil
	}
	return token{}, &Error{Code: ErrParse, Pos: start, Message: "unexpected character " + strconv.QuoteRune(rune(c))}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	seenDot, seenExp := false, false
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case isDigit(c):
			l.pos++
		case c == '.' && !seenDot && !seenExp:
			// A dot followed by an identifier is member access on a
			// number literal, not part of the number.
			if l.pos+1 < len(l.src) && isIdentStart(l.src[l.pos+1]) {
				goto done
			}
			seenDot = true
			l.pos++
		case (c == 'e' || c == 'E') && !seenExp && l.pos > start:
			seenExp = true
			l.pos++
			if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
				l.pos++
			}
		default:
			goto done
		}
	}
done:
	text := l.src[start:l.pos]
	num, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, &Error{Code: ErrParse, Pos: start, Message: "invalid number " + strconv.Quote(text)}
	}
	return token{kind: tokNumber, text: text, num: num, pos: start}, nil
}

func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentPart(l.src[l.pos]) {
		l.pos++
	}
	return token{kind: tokIdent, text: l.src[start:l.pos], pos: start}, nil
}

func (l *lexer) lexString(quote byte) (token, error) {
	start := l.pos
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case quote:
			l.pos++
			return token{kind: tokString, text: sb.String(), pos: start}, nil
		case '\\':
			if l.pos+1 >= len(l.src) {
				return token{}, &Error{Code: ErrParse, Pos: start, Message: "unterminated string"}
			}
			l.pos++
			switch l.src[l.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '"', '\'':
				sb.WriteByte(l.src[l.pos])
			default:
				return token{}, &Error{Code: ErrParse, Pos: l.pos, Message: "unknown escape"}
			}
			l.pos++
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return token{}, &Error{Code: ErrParse, Pos: start, Message: "unterminated string"}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
