package mathexpr

type token int

const (
	tokIllegal token = iota
	tokEOL

	tokLParen
	tokRParen
	tokPlus
	tokMinus
	tokStar
	tokSlash

	tokNumber
	tokIdent // variable or entity.attribute
	tokRest  // $Source.field
)

var tokenNames = map[token]string{
	tokIllegal: "illegal",
	tokEOL:     "end of expression",
	tokLParen:  "(",
	tokRParen:  ")",
	tokPlus:    "+",
	tokMinus:   "-",
	tokStar:    "*",
	tokSlash:   "/",
	tokNumber:  "number",
	tokIdent:   "name",
	tokRest:    "REST reference",
}

func (t token) String() string {
	return tokenNames[t]
}
