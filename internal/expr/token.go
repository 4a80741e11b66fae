package expr

import "fmt"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent

	tokPlus     // +
	tokMinus    // -
	tokStar     // *
	tokSlash    // /
	tokPercent  // %
	tokCaret    // ^
	tokLParen   // (
	tokRParen   // )
	tokLBracket // [
	tokRBracket // ]
	tokComma    // ,
	tokDot      // .
	tokQuestion // ?
	tokColon    // :

	tokEq  // ==
	tokNe  // !=
	tokLt  // <
	tokLe  // <=
	tokGt  // >
	tokGe  // >=
	tokAnd // &&
	tokOr  // ||
	tokNot // !
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int // byte offset in the source, for error messages
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokNumber:
		return fmt.Sprintf("number %s", t.text)
	case tokString:
		return fmt.Sprintf("string %q", t.text)
	case tokIdent:
		return fmt.Sprintf("identifier %q", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}
