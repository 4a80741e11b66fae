package expr

// node is the sealed AST interface. The grammar is deliberately small:
// arithmetic, comparison, boolean logic, the ternary, array literals,
// member access, and calls. No assignment, no loops, no user-defined
// functions. Boundedness comes from the grammar first and the step
// budget second.
type node interface {
	pos() int
	exprNode()
}

type numberLit struct {
	at  int
	val float64
}

type stringLit struct {
	at  int
	val string
}

type arrayLit struct {
	at    int
	elems []node
}

type ident struct {
	at   int
	name string
}

type unary struct {
	at      int
	op      tokenKind // tokMinus, tokNot
	operand node
}

type binary struct {
	at    int
	op    tokenKind
	left  node
	right node
}

type conditional struct {
	at   int
	cond node
	then node
	els  node
}

type member struct {
	at   int
	obj  node
	name string
}

type index struct {
	at  int
	obj node
	idx node
}

type call struct {
	at     int
	callee node
	args   []node
}

func (n *numberLit) pos() int   { return n.at }
func (n *stringLit) pos() int   { return n.at }
func (n *arrayLit) pos() int    { return n.at }
func (n *ident) pos() int       { return n.at }
func (n *unary) pos() int       { return n.at }
func (n *binary) pos() int      { return n.at }
func (n *conditional) pos() int { return n.at }
func (n *member) pos() int      { return n.at }
func (n *index) pos() int       { return n.at }
func (n *call) pos() int        { return n.at }

func (*numberLit) exprNode()   {}
func (*stringLit) exprNode()   {}
func (*arrayLit) exprNode()    {}
func (*ident) exprNode()       {}
func (*unary) exprNode()       {}
func (*binary) exprNode()      {}
func (*conditional) exprNode() {}
func (*member) exprNode()      {}
func (*index) exprNode()       {}
func (*call) exprNode()        {}
