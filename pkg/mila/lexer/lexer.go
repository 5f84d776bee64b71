package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF

	// Identifiers and literals
	IDENT  // add, foobar, x, y, ...
	INT    // 1343456
	FLOAT  // 3.14159
	STRING // "foobar"

	// Operators
	ASSIGN          // =
	PLUS            // +
	MINUS           // -
	BANG            // !
	ASTERISK        // *
	SLASH           // /
	PERCENT         // %
	LT              // <
	GT              // >
	LTE             // <=
	GTE             // >=
	EQ              // ==
	NOT_EQ          // !=
	AND             // &&
	OR              // ||
	AMPERSAND       // &
	PIPE            // |
	CARET           // ^
	SHIFT_LEFT      // <<
	SHIFT_RIGHT     // >>
	PLUS_ASSIGN     // +=
	MINUS_ASSIGN    // -=
	ASTERISK_ASSIGN // *=
	SLASH_ASSIGN    // /=

	// Delimiters
	COMMA     // ,
	SEMICOLON // ;
	COLON     // :
	DOT       // .
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]

	// Keywords
	LET
	VAR
	RETURN
	FUNCTION
	IF
	ELSE
	WHILE
	TRUE
	FALSE
)

// Token represents a single token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}

// Location renders the token position as file:line:col.
func (t Token) Location(file string) string {
	return fmt.Sprintf("%s:%d:%d", file, t.Line, t.Column)
}

// Describe renders the token the way parse errors quote it.
func (t Token) Describe(file string) string {
	return fmt.Sprintf("'%s' in %s", t.Display(), t.Location(file))
}

// Display returns the token text, with a readable stand-in for EOF.
func (t Token) Display() string {
	if t.Type == EOF {
		return "end of input"
	}
	return t.Literal
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	if s, ok := tokenNames[tt]; ok {
		return s
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

var tokenNames = map[TokenType]string{
	ILLEGAL:         "ILLEGAL",
	EOF:             "EOF",
	IDENT:           "IDENT",
	INT:             "INT",
	FLOAT:           "FLOAT",
	STRING:          "STRING",
	ASSIGN:          "=",
	PLUS:            "+",
	MINUS:           "-",
	BANG:            "!",
	ASTERISK:        "*",
	SLASH:           "/",
	PERCENT:         "%",
	LT:              "<",
	GT:              ">",
	LTE:             "<=",
	GTE:             ">=",
	EQ:              "==",
	NOT_EQ:          "!=",
	AND:             "&&",
	OR:              "||",
	AMPERSAND:       "&",
	PIPE:            "|",
	CARET:           "^",
	SHIFT_LEFT:      "<<",
	SHIFT_RIGHT:     ">>",
	PLUS_ASSIGN:     "+=",
	MINUS_ASSIGN:    "-=",
	ASTERISK_ASSIGN: "*=",
	SLASH_ASSIGN:    "/=",
	COMMA:           ",",
	SEMICOLON:       ";",
	COLON:           ":",
	DOT:             ".",
	LPAREN:          "(",
	RPAREN:          ")",
	LBRACE:          "{",
	RBRACE:          "}",
	LBRACKET:        "[",
	RBRACKET:        "]",
	LET:             "let",
	VAR:             "var",
	RETURN:          "ret",
	FUNCTION:        "fn",
	IF:              "if",
	ELSE:            "else",
	WHILE:           "while",
	TRUE:            "true",
	FALSE:           "false",
}

var keywords = map[string]TokenType{
	"let":    LET,
	"var":    VAR,
	"ret":    RETURN,
	"return": RETURN, // long form of ret
	"fn":     FUNCTION,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"true":   TRUE,
	"false":  FALSE,
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Keywords returns the reserved words of the language.
func Keywords() []string {
	words := make([]string, 0, len(keywords))
	for k := range keywords {
		words = append(words, k)
	}
	return words
}

// Lexer represents the lexical analyzer
type Lexer struct {
	filename     string
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination (first byte)
	chRune       rune // current character as a rune
	chSize       int  // byte size of current character
	line         int
	column       int
}

// New creates a new lexer instance
func New(input string) *Lexer {
	return NewWithFilename(input, "<input>")
}

// NewWithFilename creates a new lexer instance with a specific filename
func NewWithFilename(input string, filename string) *Lexer {
	l := &Lexer{
		filename: filename,
		input:    input,
		line:     1,
		column:   0,
	}
	l.readChar()
	return l
}

// Filename returns the source name used in token locations.
func (l *Lexer) Filename() string {
	return l.filename
}

// readChar reads the next character and advances position.
// ASCII takes a fast path; multi-byte characters are decoded as UTF-8.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		// step past the last character once so EOF has its own column
		if l.chSize > 0 || (l.line == 1 && l.column == 0) {
			if l.ch == '\n' {
				l.line++
				l.column = 0
			}
			l.column++
		}
		l.ch = 0 // ASCII NUL character represents EOF
		l.chRune = 0
		l.chSize = 0
		l.position = l.readPosition
		return
	}

	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	b := l.input[l.readPosition]
	if b < utf8.RuneSelf {
		l.ch = b
		l.chRune = rune(b)
		l.chSize = 1
	} else {
		r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = b
		l.chRune = r
		l.chSize = size
	}
	l.position = l.readPosition
	l.readPosition += l.chSize
	l.column++
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken scans the input and returns the next token
func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipTrivia()

	line, column := l.line, l.column

	switch l.ch {
	case '=':
		tok = l.twoCharToken('=', EQ, ASSIGN)
	case '+':
		tok = l.twoCharToken('=', PLUS_ASSIGN, PLUS)
	case '-':
		tok = l.twoCharToken('=', MINUS_ASSIGN, MINUS)
	case '*':
		tok = l.twoCharToken('=', ASTERISK_ASSIGN, ASTERISK)
	case '/':
		tok = l.twoCharToken('=', SLASH_ASSIGN, SLASH)
	case '!':
		tok = l.twoCharToken('=', NOT_EQ, BANG)
	case '%':
		tok = newToken(PERCENT, l.ch, line, column)
	case '^':
		tok = newToken(CARET, l.ch, line, column)
	case '<':
		switch l.peekChar() {
		case '=':
			tok = l.twoCharToken('=', LTE, LT)
		case '<':
			tok = l.twoCharToken('<', SHIFT_LEFT, LT)
		default:
			tok = newToken(LT, l.ch, line, column)
		}
	case '>':
		switch l.peekChar() {
		case '=':
			tok = l.twoCharToken('=', GTE, GT)
		case '>':
			tok = l.twoCharToken('>', SHIFT_RIGHT, GT)
		default:
			tok = newToken(GT, l.ch, line, column)
		}
	case '&':
		tok = l.twoCharToken('&', AND, AMPERSAND)
	case '|':
		tok = l.twoCharToken('|', OR, PIPE)
	case ',':
		tok = newToken(COMMA, l.ch, line, column)
	case ';':
		tok = newToken(SEMICOLON, l.ch, line, column)
	case ':':
		tok = newToken(COLON, l.ch, line, column)
	case '.':
		tok = newToken(DOT, l.ch, line, column)
	case '(':
		tok = newToken(LPAREN, l.ch, line, column)
	case ')':
		tok = newToken(RPAREN, l.ch, line, column)
	case '{':
		tok = newToken(LBRACE, l.ch, line, column)
	case '}':
		tok = newToken(RBRACE, l.ch, line, column)
	case '[':
		tok = newToken(LBRACKET, l.ch, line, column)
	case ']':
		tok = newToken(RBRACKET, l.ch, line, column)
	case '"':
		str, terminated := l.readString()
		if !terminated {
			return Token{Type: ILLEGAL, Literal: `"` + str, Line: line, Column: column}
		}
		tok = Token{Type: STRING, Literal: str, Line: line, Column: column}
	case 0:
		return Token{Type: EOF, Literal: "", Line: line, Column: column}
	default:
		if isLetterRune(l.chRune) {
			literal := l.readIdentifier()
			return Token{Type: LookupIdent(literal), Literal: literal, Line: line, Column: column}
		} else if isDigit(l.ch) {
			literal, typ := l.readNumber()
			return Token{Type: typ, Literal: literal, Line: line, Column: column}
		}
		tok = Token{Type: ILLEGAL, Literal: string(l.chRune), Line: line, Column: column}
	}

	l.readChar()
	return tok
}

// twoCharToken returns the two-character token when the next char is
// second, otherwise the single-character fallback.
func (l *Lexer) twoCharToken(second byte, double, single TokenType) Token {
	line, column := l.line, l.column
	if l.peekChar() == second {
		ch := l.ch
		l.readChar()
		return Token{Type: double, Literal: string(ch) + string(l.ch), Line: line, Column: column}
	}
	return newToken(single, l.ch, line, column)
}

// newToken creates a new token with the given parameters
func newToken(tokenType TokenType, ch byte, line, column int) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: line, Column: column}
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetterRune(l.chRune) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads an integer or float. A number running straight into
// letters or a second decimal point (12abc, 1.0.0) is ILLEGAL.
func (l *Lexer) readNumber() (string, TokenType) {
	position := l.position
	typ := INT
	for isDigit(l.ch) {
		l.readChar()
	}

	if l.ch == '.' && isDigit(l.peekChar()) {
		typ = FLOAT
		l.readChar() // consume the '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	if isLetterRune(l.chRune) || (typ == FLOAT && l.ch == '.') {
		for isLetterRune(l.chRune) || isDigit(l.ch) || l.ch == '.' {
			l.readChar()
		}
		typ = ILLEGAL
	}

	return l.input[position:l.position], typ
}

// readString reads a double-quoted string, leaving the lexer on the
// closing quote. The bool reports whether the closing quote was found.
func (l *Lexer) readString() (string, bool) {
	var result []byte
	l.readChar() // skip opening quote

	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar() // consume backslash
			switch l.ch {
			case 'n':
				result = append(result, '\n')
			case 't':
				result = append(result, '\t')
			case 'r':
				result = append(result, '\r')
			case '0':
				result = append(result, 0)
			case '\\':
				result = append(result, '\\')
			case '"':
				result = append(result, '"')
			case 0:
				return string(result), false
			default:
				// Unknown escape, keep as-is
				result = append(result, '\\')
				result = append(result, l.input[l.position:l.position+l.chSize]...)
			}
		} else {
			result = append(result, l.input[l.position:l.position+l.chSize]...)
		}
		l.readChar()
	}

	return string(result), l.ch == '"'
}

// skipTrivia skips whitespace and // line comments.
func (l *Lexer) skipTrivia() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		return
	}
}

// isLetterRune checks if a rune is a valid identifier character (letter or underscore).
// This supports Unicode letters like π, α, 日本語, etc.
func isLetterRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// isDigit checks if the character is a digit
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
