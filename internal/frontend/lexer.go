package frontend

import (
	"strconv"
	"strings"

	"sluice/internal/diag"
	"sluice/internal/source"
)

// multi-character operators, longest first per leading byte.
var operators = []string{
	"<<=", ">>=",
	"->", "++", "--", "<=", ">=", "==", "!=", "&&", "||",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>", "::",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "!", "<", ">", "=",
	"(", ")", "{", "}", "[", "]", ";", ",", ".", ":", "?",
}

type lexer struct {
	file *source.File
	pos  int
}

// lexAll tokenizes the whole file. Preprocessor lines (#include, #pragma)
// are skipped here; pragmas are collected separately from the raw text.
func lexAll(file *source.File) ([]Token, error) {
	lx := &lexer{file: file}
	var toks []Token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) span(start int) source.Span {
	return source.Span{File: lx.file.ID, Start: uint32(start), End: uint32(lx.pos)}
}

func (lx *lexer) skipTrivia() {
	src := lx.file.Content
	for lx.pos < len(src) {
		c := src[lx.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			lx.pos++
		case c == '#':
			// Preprocessor directive: consume the rest of the line.
			for lx.pos < len(src) && src[lx.pos] != '\n' {
				lx.pos++
			}
		case c == '/' && lx.pos+1 < len(src) && src[lx.pos+1] == '/':
			for lx.pos < len(src) && src[lx.pos] != '\n' {
				lx.pos++
			}
		case c == '/' && lx.pos+1 < len(src) && src[lx.pos+1] == '*':
			end := strings.Index(string(src[lx.pos+2:]), "*/")
			if end < 0 {
				lx.pos = len(src)
				return
			}
			lx.pos += end + 4
		default:
			return
		}
	}
}

func (lx *lexer) next() (Token, error) {
	lx.skipTrivia()
	src := lx.file.Content
	start := lx.pos
	if lx.pos >= len(src) {
		return Token{Kind: TokEOF, Span: lx.span(start)}, nil
	}
	c := src[lx.pos]
	switch {
	case isIdentStart(c):
		for lx.pos < len(src) && isIdentCont(src[lx.pos]) {
			lx.pos++
		}
		return Token{Kind: TokIdent, Text: string(src[start:lx.pos]), Span: lx.span(start)}, nil
	case c >= '0' && c <= '9':
		return lx.scanNumber(start)
	default:
		for _, op := range operators {
			if strings.HasPrefix(string(src[lx.pos:]), op) {
				lx.pos += len(op)
				return Token{Kind: TokSym, Text: op, Span: lx.span(start)}, nil
			}
		}
		lx.pos++
		return Token{}, diag.Errorf(diag.ParseUnexpected, lx.span(start), "unexpected character %q", string(c))
	}
}

func (lx *lexer) scanNumber(start int) (Token, error) {
	src := lx.file.Content
	base := 10
	if strings.HasPrefix(string(src[lx.pos:]), "0x") || strings.HasPrefix(string(src[lx.pos:]), "0X") {
		base = 16
		lx.pos += 2
	}
	digitStart := lx.pos
	for lx.pos < len(src) && isDigit(src[lx.pos], base) {
		lx.pos++
	}
	digits := string(src[digitStart:lx.pos])
	suffixStart := lx.pos
	for lx.pos < len(src) && isIdentCont(src[lx.pos]) {
		lx.pos++
	}
	suffix := strings.ToLower(string(src[suffixStart:lx.pos]))
	switch suffix {
	case "", "u", "l", "ul", "lu", "ll", "ull", "llu":
	default:
		return Token{}, diag.Errorf(diag.ParseBadNumber, lx.span(start), "bad integer suffix %q", suffix)
	}
	val, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return Token{}, diag.Errorf(diag.ParseBadNumber, lx.span(start), "bad integer literal %q", digits)
	}
	return Token{Kind: TokNumber, Text: digits, Val: int64(val), Suffix: suffix, Span: lx.span(start)}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte, base int) bool {
	if base == 16 {
		return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	}
	return c >= '0' && c <= '9'
}
