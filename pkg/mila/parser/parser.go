package parser

import (
	"strconv"

	"github.com/sambeau/mila/pkg/mila/ast"
	merrors "github.com/sambeau/mila/pkg/mila/errors"
	"github.com/sambeau/mila/pkg/mila/lexer"
)

// Precedence levels for operators
const (
	_ int = iota
	LOWEST
	ASSIGN      // = += -= *= /=
	ANDOR       // && ||
	EQUALS      // == !=
	LESSGREATER // > or <
	BITWISE     // | ^ &
	SHIFT       // << >>
	SUM         // +
	PRODUCT     // * / %
	PREFIX      // -X or !X
	DOT         // receiver.member
	CALL        // myFunction(X)
	INDEX       // array[index]
)

// precedences maps tokens to their precedence
var precedences = map[lexer.TokenType]int{
	lexer.ASSIGN:          ASSIGN,
	lexer.PLUS_ASSIGN:     ASSIGN,
	lexer.MINUS_ASSIGN:    ASSIGN,
	lexer.ASTERISK_ASSIGN: ASSIGN,
	lexer.SLASH_ASSIGN:    ASSIGN,
	lexer.AND:             ANDOR,
	lexer.OR:              ANDOR,
	lexer.EQ:              EQUALS,
	lexer.NOT_EQ:          EQUALS,
	lexer.LT:              LESSGREATER,
	lexer.GT:              LESSGREATER,
	lexer.LTE:             LESSGREATER,
	lexer.GTE:             LESSGREATER,
	lexer.PIPE:            BITWISE,
	lexer.CARET:           BITWISE,
	lexer.AMPERSAND:       BITWISE,
	lexer.SHIFT_LEFT:      SHIFT,
	lexer.SHIFT_RIGHT:     SHIFT,
	lexer.PLUS:            SUM,
	lexer.MINUS:           SUM,
	lexer.ASTERISK:        PRODUCT,
	lexer.SLASH:           PRODUCT,
	lexer.PERCENT:         PRODUCT,
	lexer.DOT:             DOT,
	lexer.LPAREN:          CALL,
	lexer.LBRACKET:        INDEX,
}

// Parser represents the parser
type Parser struct {
	l    *lexer.Lexer
	file string

	structuredErrors []*merrors.MilaError

	curToken  lexer.Token
	peekToken lexer.Token

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn

	// failed is set once the statement being parsed has reported an error.
	failed bool
	// inHash is set while parsing hash values, where a bare | closes the literal.
	inHash bool
	// depth counts the braces opened and not yet closed before curToken.
	depth int
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// New creates a new parser instance
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:    l,
		file: l.Filename(),
	}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseIntegerLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolean)
	p.registerPrefix(lexer.FALSE, p.parseBoolean)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpression)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(lexer.IF, p.parseIfExpression)
	p.registerPrefix(lexer.WHILE, p.parseWhileExpression)
	p.registerPrefix(lexer.FUNCTION, p.parseFunctionLiteral)
	p.registerPrefix(lexer.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(lexer.PIPE, p.parseHashLiteral)
	p.registerPrefix(lexer.OR, p.parseEmptyHash)

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	for _, t := range []lexer.TokenType{
		lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.PERCENT,
		lexer.EQ, lexer.NOT_EQ, lexer.LT, lexer.GT, lexer.LTE, lexer.GTE,
		lexer.AND, lexer.OR,
		lexer.AMPERSAND, lexer.PIPE, lexer.CARET, lexer.SHIFT_LEFT, lexer.SHIFT_RIGHT,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	for _, t := range []lexer.TokenType{
		lexer.ASSIGN, lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN, lexer.ASTERISK_ASSIGN, lexer.SLASH_ASSIGN,
	} {
		p.registerInfix(t, p.parseAssignExpression)
	}
	p.registerInfix(lexer.LPAREN, p.parseCallExpression)
	p.registerInfix(lexer.LBRACKET, p.parseIndexExpression)
	p.registerInfix(lexer.DOT, p.parseMemberExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Errors returns parser errors as "file:line:col: message" strings.
func (p *Parser) Errors() []string {
	result := make([]string, len(p.structuredErrors))
	for i, err := range p.structuredErrors {
		result[i] = err.Location() + ": " + err.Message
	}
	return result
}

// StructuredErrors returns parser errors as structured MilaError objects.
func (p *Parser) StructuredErrors() []*merrors.MilaError {
	return p.structuredErrors
}

// addError records a catalog error at tok. Only the first error of a
// statement is kept; the rest are cascading noise.
func (p *Parser) addError(code string, tok lexer.Token, data map[string]any) {
	if p.failed {
		return
	}
	p.failed = true

	perr := merrors.NewWithPosition(code, tok.Line, tok.Column, data)
	perr.File = p.file
	p.structuredErrors = append(p.structuredErrors, perr)
}

// registerPrefix registers a prefix parse function
func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

// registerInfix registers an infix parse function
func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) nextToken() {
	p.depth = p.depthAfter(p.curToken)
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// ParseProgram parses the whole input and returns the AST. Errors are
// accumulated; check Errors before evaluating the result.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{File: p.file}
	program.Statements = []ast.Statement{}

	for !p.curTokenIs(lexer.EOF) {
		base := p.depth
		stmt := p.parseStatement()
		if p.failed {
			p.synchronize(base)
			p.failed = false
		} else if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}

	return program
}

// depthAfter returns the brace depth once tok has been consumed.
func (p *Parser) depthAfter(tok lexer.Token) int {
	switch tok.Type {
	case lexer.LBRACE:
		return p.depth + 1
	case lexer.RBRACE:
		if p.depth > 0 {
			return p.depth - 1
		}
	}
	return p.depth
}

// synchronize skips the rest of a failed statement that began at brace
// depth base. Blocks opened inside the statement are skipped whole. It
// stops on a ';' back at base, before a token that starts a statement, or
// on the '}' closing the enclosing block, which is left for that block to
// consume.
func (p *Parser) synchronize(base int) {
	for !p.curTokenIs(lexer.EOF) {
		if p.depth <= base {
			switch p.curToken.Type {
			case lexer.RBRACE, lexer.SEMICOLON:
				return
			}
		}

		if p.depthAfter(p.curToken) <= base {
			switch p.peekToken.Type {
			case lexer.LET, lexer.VAR, lexer.RETURN, lexer.RBRACE, lexer.EOF:
				return
			}
		}

		p.nextToken()
	}
}

// parseStatement parses statements
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case lexer.LET:
		return p.parseLetStatement()
	case lexer.VAR:
		return p.parseVarStatement()
	case lexer.RETURN:
		return p.parseReturnStatement()
	case lexer.LBRACE:
		block := p.parseBlockStatement()
		if block == nil {
			return nil
		}
		if p.peekTokenIs(lexer.SEMICOLON) {
			p.nextToken()
		}
		return block
	default:
		return p.parseExpressionStatement()
	}
}

// parseBinding parses the "IDENT = expr [;]" tail shared by let and var.
func (p *Parser) parseBinding() (*ast.Identifier, ast.Expression) {
	if !p.expectPeek(lexer.IDENT) {
		return nil, nil
	}
	name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}

	if !p.expectPeek(lexer.ASSIGN) {
		return nil, nil
	}
	p.nextToken()

	value := p.parseExpression(LOWEST)
	if value == nil {
		return nil, nil
	}

	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	}

	return name, value
}

func (p *Parser) parseLetStatement() ast.Statement {
	stmt := &ast.LetStatement{Token: p.curToken}
	stmt.Name, stmt.Value = p.parseBinding()
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseVarStatement() ast.Statement {
	stmt := &ast.VarStatement{Token: p.curToken}
	stmt.Name, stmt.Value = p.parseBinding()
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

// parseReturnStatement parses 'ret x;', 'return x' and a bare 'ret;'.
func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}

	switch p.peekToken.Type {
	case lexer.SEMICOLON:
		p.nextToken()
		return stmt
	case lexer.RBRACE, lexer.EOF:
		return stmt
	}

	p.nextToken()
	stmt.ReturnValue = p.parseExpression(LOWEST)
	if stmt.ReturnValue == nil {
		return nil
	}

	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	}

	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}

	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}

	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	}

	return stmt
}

// parseExpression parses expressions using Pratt parsing
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}

	leftExp := prefix()

	for leftExp != nil && !p.peekTokenIs(lexer.SEMICOLON) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
	}

	return leftExp
}

// parseNested parses an expression inside brackets, where | is the
// bitwise operator again even within a hash value.
func (p *Parser) parseNested(precedence int) ast.Expression {
	saved := p.inHash
	p.inHash = false
	defer func() { p.inHash = saved }()
	return p.parseExpression(precedence)
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.addError("PARSE-0003", p.curToken, map[string]any{"Literal": p.curToken.Literal})
		return nil
	}

	return &ast.IntegerLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addError("PARSE-0004", p.curToken, map[string]any{"Literal": p.curToken.Literal})
		return nil
	}

	return &ast.FloatLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(lexer.TRUE)}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}

	p.nextToken()

	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}

	return expression
}

// parseAssignExpression parses x = v and the compound forms. Assignment is
// right-associative, so a = b = 1 assigns 1 to both.
func (p *Parser) parseAssignExpression(target ast.Expression) ast.Expression {
	expression := &ast.AssignExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
		Target:   target,
	}

	if !isAssignable(target) {
		p.addError("PARSE-0007", p.curToken, map[string]any{"Target": target.String()})
		return nil
	}

	p.nextToken()
	expression.Value = p.parseExpression(ASSIGN - 1)
	if expression.Value == nil {
		return nil
	}

	return expression
}

// isAssignable reports whether expr names a storage location.
func isAssignable(expr ast.Expression) bool {
	switch e := expr.(type) {
	case *ast.Identifier, *ast.IndexExpression:
		return true
	case *ast.InfixExpression:
		_, ok := e.Right.(*ast.Identifier)
		return e.Operator == "." && ok
	}
	return false
}

// parseMemberExpression parses receiver.name and receiver.name(args).
// The member binds tighter than any following index or call, so
// h.items[0] indexes the value of h.items.
func (p *Parser) parseMemberExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: ".",
	}

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	member := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	expression.Right = member

	if p.peekTokenIs(lexer.LPAREN) {
		p.nextToken()
		call := p.parseCallExpression(member)
		if call == nil {
			return nil
		}
		expression.Right = call
	}

	return expression
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()

	exp := p.parseNested(LOWEST)
	if exp == nil {
		return nil
	}

	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}

	return exp
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	array := &ast.ArrayLiteral{Token: p.curToken}

	array.Elements = p.parseExpressionList(lexer.RBRACKET)
	if array.Elements == nil {
		return nil
	}

	return array
}

// parseHashLiteral parses |key: value, "other key": value|.
func (p *Parser) parseHashLiteral() ast.Expression {
	hash := &ast.HashLiteral{Token: p.curToken, Pairs: []ast.HashPair{}}

	for !p.peekTokenIs(lexer.PIPE) {
		p.nextToken()

		var key string
		switch p.curToken.Type {
		case lexer.IDENT, lexer.STRING:
			key = p.curToken.Literal
		default:
			if p.curTokenIs(lexer.ILLEGAL) {
				p.noPrefixParseFnError(p.curToken)
			} else {
				p.addError("PARSE-0008", p.curToken, map[string]any{"Got": p.curToken.Display()})
			}
			return nil
		}

		if !p.expectPeek(lexer.COLON) {
			return nil
		}
		p.nextToken()

		saved := p.inHash
		p.inHash = true
		value := p.parseExpression(LOWEST)
		p.inHash = saved
		if value == nil {
			return nil
		}

		hash.Pairs = append(hash.Pairs, ast.HashPair{Key: key, Value: value})

		if p.peekTokenIs(lexer.PIPE) {
			break
		}
		if !p.expectPeek(lexer.COMMA) {
			return nil
		}
	}

	p.nextToken() // closing '|'
	return hash
}

// parseEmptyHash parses ||, which the lexer reads as a single token.
func (p *Parser) parseEmptyHash() ast.Expression {
	return &ast.HashLiteral{Token: p.curToken, Pairs: []ast.HashPair{}}
}

func (p *Parser) parseIfExpression() ast.Expression {
	expression := &ast.IfExpression{Token: p.curToken}

	p.nextToken()
	expression.Condition = p.parseNested(LOWEST)
	if expression.Condition == nil {
		return nil
	}

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	expression.Consequence = p.parseBlockStatement()
	if expression.Consequence == nil {
		return nil
	}

	if !p.peekTokenIs(lexer.ELSE) {
		return expression
	}
	p.nextToken()

	if p.peekTokenIs(lexer.IF) {
		p.nextToken()
		elseIf, ok := p.parseIfExpression().(*ast.IfExpression)
		if !ok {
			return nil
		}
		expression.ElseIf = elseIf
		return expression
	}

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	expression.Alternative = p.parseBlockStatement()
	if expression.Alternative == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseWhileExpression() ast.Expression {
	expression := &ast.WhileExpression{Token: p.curToken}

	p.nextToken()
	expression.Condition = p.parseNested(LOWEST)
	if expression.Condition == nil {
		return nil
	}

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	expression.Body = p.parseBlockStatement()
	if expression.Body == nil {
		return nil
	}

	return expression
}

// parseBlockStatement parses { ... } starting on the '{'. A failing
// statement inside the block is reported and skipped so the rest of the
// block still parses.
func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}
	block.Statements = []ast.Statement{}

	saved := p.inHash
	p.inHash = false
	defer func() { p.inHash = saved }()

	p.nextToken()

	for !p.curTokenIs(lexer.RBRACE) {
		if p.curTokenIs(lexer.EOF) {
			p.addError("PARSE-0001", p.curToken, map[string]any{
				"Expected": lexer.RBRACE.String(),
				"Got":      p.curToken.Display(),
			})
			return nil
		}

		base := p.depth
		stmt := p.parseStatement()
		if p.failed {
			p.synchronize(base)
			if p.curTokenIs(lexer.EOF) {
				return nil
			}
			p.failed = false
			if p.curTokenIs(lexer.RBRACE) {
				break
			}
		} else if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}

	return block
}

// parseFunctionLiteral parses fn(a, b) { ... } and fn name(a, b) { ... }.
func (p *Parser) parseFunctionLiteral() ast.Expression {
	lit := &ast.FunctionLiteral{Token: p.curToken}

	if p.peekTokenIs(lexer.IDENT) {
		p.nextToken()
		lit.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
	}

	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}

	lit.Parameters = p.parseFunctionParameters()
	if lit.Parameters == nil {
		return nil
	}

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}

	lit.Body = p.parseBlockStatement()
	if lit.Body == nil {
		return nil
	}

	return lit
}

func (p *Parser) parseFunctionParameters() []*ast.Identifier {
	identifiers := []*ast.Identifier{}

	for !p.peekTokenIs(lexer.RPAREN) {
		if !p.expectPeek(lexer.IDENT) {
			return nil
		}
		identifiers = append(identifiers, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})

		if p.peekTokenIs(lexer.RPAREN) {
			break
		}
		if !p.expectPeek(lexer.COMMA) {
			return nil
		}
	}

	p.nextToken() // ')'
	return identifiers
}

func (p *Parser) parseCallExpression(fn ast.Expression) ast.Expression {
	exp := &ast.CallExpression{Token: p.curToken, Function: fn}

	exp.Arguments = p.parseExpressionList(lexer.RPAREN)
	if exp.Arguments == nil {
		return nil
	}

	return exp
}

// parseExpressionList parses comma separated expressions up to end,
// allowing a trailing comma. It returns nil after an error.
func (p *Parser) parseExpressionList(end lexer.TokenType) []ast.Expression {
	list := []ast.Expression{}

	for !p.peekTokenIs(end) {
		p.nextToken()

		item := p.parseNested(LOWEST)
		if item == nil {
			return nil
		}
		list = append(list, item)

		if p.peekTokenIs(end) {
			break
		}
		if !p.expectPeek(lexer.COMMA) {
			return nil
		}
	}

	p.nextToken() // end token
	return list
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	exp := &ast.IndexExpression{Token: p.curToken, Left: left}

	p.nextToken()
	exp.Index = p.parseNested(LOWEST)
	if exp.Index == nil {
		return nil
	}

	if !p.expectPeek(lexer.RBRACKET) {
		return nil
	}

	return exp
}

// Helper functions
func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t lexer.TokenType) {
	if p.peekTokenIs(lexer.ILLEGAL) {
		p.illegalTokenError(p.peekToken)
		return
	}
	p.addError("PARSE-0001", p.peekToken, map[string]any{
		"Expected": t.String(),
		"Got":      p.peekToken.Display(),
	})
}

func (p *Parser) noPrefixParseFnError(tok lexer.Token) {
	if tok.Type == lexer.ILLEGAL {
		p.illegalTokenError(tok)
		return
	}
	p.addError("PARSE-0002", tok, map[string]any{"Token": tok.Display()})
}

func (p *Parser) illegalTokenError(tok lexer.Token) {
	if len(tok.Literal) > 0 && tok.Literal[0] == '"' {
		p.addError("PARSE-0006", tok, nil)
		return
	}
	p.addError("PARSE-0005", tok, map[string]any{"Literal": tok.Literal})
}

func (p *Parser) peekPrecedence() int {
	if p.inHash && p.peekTokenIs(lexer.PIPE) {
		return LOWEST
	}
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}
