package calc

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"unicode"
)

type lexToken struct {
	text string
	kind tokenKind
	pos  int
}

func (t lexToken) String() string {
	return t.kind.String() + ":" + t.text + "@" + strconv.Itoa(t.pos)
}

type tokenKind int

const (
	tokenNone tokenKind = iota
	// tokenEOF indicates the end of the input.
	tokenEOF
	// tokenNum is a decimal literal, possibly signed. Its text is normalized
	// so that it always uses . as the separator and has digits after it.
	tokenNum
	// tokenIdent is a variable or function name.
	tokenIdent
	// tokenOp is a binary operator, including the words mod and div.
	tokenOp
	// tokenOpen is an open bracket.
	tokenOpen
	// tokenClose is a close bracket.
	tokenClose
	// tokenSep is the function arguments separator ;.
	tokenSep
	// tokenAssign is =.
	tokenAssign
	// tokenInvalid is a rune that cannot start any token.
	tokenInvalid
)

var tokenNames = [...]string{
	tokenNone:    "None",
	tokenEOF:     "EOF",
	tokenNum:     "Num",
	tokenIdent:   "Ident",
	tokenOp:      "Op",
	tokenOpen:    "Open",
	tokenClose:   "Close",
	tokenSep:     "Sep",
	tokenAssign:  "Assign",
	tokenInvalid: "Invalid",
}

func (k tokenKind) String() string {
	if k < 0 || int(k) >= len(tokenNames) {
		return "tokenKind(" + strconv.Itoa(int(k)) + ")"
	}
	return tokenNames[k]
}

// Operators contains the runes which are considered to be operators. The
// words mod and div are operators as well.
const Operators = "+-*/:"

// Separators contains the runes accepted as a decimal separator in numbers.
const Separators = ".,"

type lexer struct {
	src  io.RuneScanner
	buf  strings.Builder
	rune int
	// p holds pushed tokens, with the next token to return last.
	p   []lexToken
	eof bool
}

func lex(src io.RuneScanner) *lexer {
	return &lexer{
		src:  src,
		rune: 1,
	}
}

// push unreads a token so that it is the next token returned from next. At
// most two tokens may be pushed at once; the parser never needs more.
func (l *lexer) push(tok lexToken) {
	if len(l.p) >= 2 {
		panic("calc: triple push")
	}
	l.p = append(l.p, tok)
}

// must scans the most recently pushed token. Panics if there is no pushed
// token.
func (l *lexer) must() lexToken {
	if len(l.p) == 0 {
		panic("calc: no pushed token")
	}
	tok := l.p[len(l.p)-1]
	l.p = l.p[:len(l.p)-1]
	return tok
}

// peek returns the next token without consuming it.
func (l *lexer) peek() (lexToken, error) {
	tok, err := l.next()
	if err != nil {
		return tok, err
	}
	l.push(tok)
	return tok, nil
}

// readRune reads a rune from the src and updates the lexer's position info.
func (l *lexer) readRune() (r rune, err error) {
	r, sz, err := l.src.ReadRune()
	if sz > 0 {
		l.rune++
	}
	return r, err
}

// unreadRune unreads a rune from the src and updates the lexer's position
// info. Panics if unreading returns an error.
func (l *lexer) unreadRune() {
	if err := l.src.UnreadRune(); err != nil {
		panic(err)
	}
	l.rune--
}

// peekDigit reports whether the next rune is an ASCII digit without consuming
// it.
func (l *lexer) peekDigit() (bool, error) {
	r, err := l.readRune()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	l.unreadRune()
	return isDigit(r), nil
}

// next scans the next token from the input. The first time EOF is encountered,
// the result is an EOF token with a nil error. Subsequent times, if the EOF
// token is not pushed, the result is an empty token with io.EOF.
func (l *lexer) next() (lexToken, error) {
	if len(l.p) > 0 {
		return l.must(), nil
	}
	if l.eof {
		return lexToken{}, io.EOF
	}
	defer l.buf.Reset()
	tok := lexToken{pos: l.rune}
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				tok.kind = tokenEOF
				l.eof = true
				return tok, nil
			}
			return tok, err
		}
		switch {
		case unicode.IsSpace(r):
			tok.pos++
			continue
		case isDigit(r):
			l.unreadRune()
			if err := l.scanNum(); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			tok.kind = tokenNum
			return tok, nil
		case r == '+', r == '-':
			// A sign immediately followed by a digit belongs to the number.
			dig, err := l.peekDigit()
			if err != nil {
				return tok, err
			}
			if dig {
				if r == '-' {
					l.buf.WriteRune(r)
				}
				if err := l.scanNum(); err != nil {
					return tok, err
				}
				tok.text = l.buf.String()
				tok.kind = tokenNum
				return tok, nil
			}
			tok.text = string(r)
			tok.kind = tokenOp
			return tok, nil
		case unicode.IsLetter(r):
			l.unreadRune()
			if err := l.scanIdent(); err != nil {
				return tok, err
			}
			tok.text = l.buf.String()
			switch tok.text {
			case "mod", "div":
				tok.kind = tokenOp
			default:
				tok.kind = tokenIdent
			}
			return tok, nil
		case r == '*', r == '/':
			tok.text = string(r)
			tok.kind = tokenOp
			return tok, nil
		case r == ':':
			// : is another spelling of /.
			tok.text = "/"
			tok.kind = tokenOp
			return tok, nil
		case r == '(':
			tok.text = "("
			tok.kind = tokenOpen
			return tok, nil
		case r == ')':
			tok.text = ")"
			tok.kind = tokenClose
			return tok, nil
		case r == ';':
			tok.text = ";"
			tok.kind = tokenSep
			return tok, nil
		case r == '=':
			tok.text = "="
			tok.kind = tokenAssign
			return tok, nil
		default:
			tok.text = string(r)
			tok.kind = tokenInvalid
			return tok, nil
		}
	}
}

// scanNum scans the unsigned part of a number into l.buf. The input must be
// positioned at a digit.
func (l *lexer) scanNum() error {
	var sep, frac bool
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		if isDigit(r) {
			l.buf.WriteRune(r)
			frac = sep
			continue
		}
		if !sep && strings.ContainsRune(Separators, r) {
			sep = true
			l.buf.WriteByte('.')
			continue
		}
		l.unreadRune()
		break
	}
	if sep && !frac {
		// 2. and 2, are 2.0.
		l.buf.WriteByte('0')
	}
	return nil
}

func (l *lexer) scanIdent() error {
	for {
		r, err := l.readRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// next unreads the rune that decides ident scanning before
				// calling scanIdent, so we have scanned at least one rune.
				return nil
			}
			return err
		}
		switch {
		case r == '_', unicode.IsLetter(r), isDigit(r):
			l.buf.WriteRune(r)
		default:
			l.unreadRune()
			return nil
		}
	}
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}
