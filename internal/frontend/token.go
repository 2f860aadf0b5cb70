package frontend

import (
	"sluice/internal/source"
)

// TokKind enumerates lexical token classes.
type TokKind uint8

const (
	TokEOF TokKind = iota
	TokIdent
	TokNumber
	TokSym
)

// Token is one lexical token. Sym tokens carry the operator text; Number
// tokens carry the parsed value and any integer suffix.
type Token struct {
	Kind   TokKind
	Text   string
	Val    int64
	Suffix string
	Span   source.Span
}

func (t Token) Is(text string) bool {
	return t.Kind == TokSym && t.Text == text
}

func (t Token) IsIdent(text string) bool {
	return t.Kind == TokIdent && t.Text == text
}

// keywords the parser treats specially; they lex as idents.
var keywords = map[string]bool{
	"bool": true, "char": true, "short": true, "int": true, "long": true,
	"unsigned": true, "signed": true, "void": true, "const": true,
	"struct": true, "class": true, "public": true, "private": true,
	"protected": true, "static": true, "template": true, "typename": true,
	"typedef": true, "operator": true, "this": true, "true": true,
	"false": true, "if": true, "else": true, "switch": true, "case": true,
	"default": true, "for": true, "while": true, "do": true, "return": true,
	"break": true, "continue": true,
}
