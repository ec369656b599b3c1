package mathexpr

type lexer struct {
	src []byte
	pos int
}

func newLexer(src []byte) *lexer {
	return &lexer{src: src}
}

// scan returns the start column, kind and text of the next token.
func (l *lexer) scan() (int, token, string) {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
	start := l.pos
	if l.pos >= len(l.src) {
		return start, tokEOL, ""
	}

	ch := l.src[l.pos]
	l.pos++

	switch {
	case isDigit(ch) || (ch == '.' && l.pos < len(l.src) && isDigit(l.src[l.pos])):
		dots := 0
		if ch == '.' {
			dots++
		}
		for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
			if l.src[l.pos] == '.' {
				dots++
			}
			l.pos++
		}
		if dots > 1 {
			return start, tokIllegal, string(l.src[start:l.pos])
		}
		return start, tokNumber, string(l.src[start:l.pos])
	case isAlpha(ch):
		l.name()
		return start, tokIdent, string(l.src[start:l.pos])
	case ch == '$':
		if l.pos >= len(l.src) || !isAlpha(l.src[l.pos]) {
			return start, tokIllegal, "$"
		}
		nameStart := l.pos
		l.name()
		return start, tokRest, string(l.src[nameStart:l.pos])
	}

	switch ch {
	case '(':
		return start, tokLParen, ""
	case ')':
		return start, tokRParen, ""
	case '+':
		return start, tokPlus, ""
	case '-':
		return start, tokMinus, ""
	case '*':
		return start, tokStar, ""
	case '/':
		return start, tokSlash, ""
	}
	return start, tokIllegal, string(ch)
}

// name consumes the rest of a dotted identifier.
func (l *lexer) name() {
	for l.pos < len(l.src) && (isAlpha(l.src[l.pos]) || isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		l.pos++
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
