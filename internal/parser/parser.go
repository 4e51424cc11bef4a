// Package parser reads AetherScript's S-expression surface syntax and
// builds an aetherc/internal/ast.Program directly — there is no
// parser-local AST to translate afterward, unlike the teacher's own
// internal/parser/ast.go, because internal/ast already fixes the shape
// every later phase (semantic, mirbuilder) expects.
//
// Concrete grammar (informal EBNF; symbol is any non-delimiter atom that
// is not an int/float literal):
//
//	program    := module*
//	module     := '(' 'module' symbol import* constdecl* extern* function* ')'
//	import     := '(' 'import' string [string] ')'              ; path [semver constraint]
//	constdecl  := '(' 'const' symbol typespec expr ')'
//	extern     := '(' 'extern' symbol '(' param* ')' typespec ')'
//	function   := '(' 'function' symbol ['pure'] '(' param* ')' typespec
//	                  [metadata] stmt* ')'
//	param      := '(' typespec symbol ['mut'] ')'
//	typespec   := sigil typespec
//	            | '(' 'array' typespec [int] ')'
//	            | '(' 'map' typespec typespec ')'
//	            | '(' 'fn' '(' typespec* ')' typespec ')'
//	            | symbol
//	sigil      := '^' | '~' | '&' ['mut']
//
//	metadata   := '(' 'metadata' meta-item* ')'
//	meta-item  := '(' 'intent' string ')'
//	            | '(' 'algorithm-hint' string ')'
//	            | '(' 'precondition' symbol expr [string [failaction]] ')'
//	            | '(' 'postcondition' symbol expr [string [failaction]] ')'
//	            | '(' 'complexity' string ')'
//	            | '(' 'performance' symbol float string ')'
//	            | '(' 'thread-safe' bool ')'
//	            | '(' 'may-block' bool ')'
//	failaction := 'assert-fail' | 'throw' | 'abort'
//
//	stmt       := '(' 'let' '(' '(' ['mut'] symbol [typespec] expr ')' ')' ')'
//	            | '(' 'set' expr expr ')'
//	            | '(' 'while' expr stmt* ')'
//	            | '(' 'return' [expr] ')'
//	            | '(' 'block' stmt* ')'
//	            | expr
//
//	expr       := int | float | 'true' | 'false' | string | symbol
//	            | '(' 'if' expr stmt-seq [stmt-seq] ')'
//	            | '(' 'array-length' [expr] ')'
//	            | '(' 'return-value' ')'
//	            | '(' '.' expr symbol ')'
//	            | '(' 'at' expr expr ')'
//	            | '(' binop expr expr ')'
//	            | '(' unop expr ')'
//	            | '(' symbol expr* ')'                           ; call
//	stmt-seq   := '(' stmt* ')'
//
// A function's last top-level form, when it is a bare expression (not one
// of the statement keywords above), is implicitly its return value —
// mirroring internal/semantic.checkBlockValue's "trailing ExprStmt is the
// branch value" convention for if-branches, applied at the function-body
// level too so a function need not end in an explicit `return`.
package parser

import (
	"fmt"
	"strconv"

	"aetherc/internal/ast"
	"aetherc/internal/diagnostics"
	"aetherc/internal/lexer"
)

var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
	"&&": true, "||": true,
}

var failActions = map[string]ast.FailureAction{
	"assert-fail": ast.AssertFail,
	"throw":       ast.ThrowException,
	"abort":       ast.Abort,
}

// Parser turns a token stream into an ast.Program, recovering at
// top-level-form granularity so one malformed module never prevents the
// rest of the file from parsing (§7's "one bad thing doesn't mask
// others", applied to syntax instead of semantics).
type Parser struct {
	tokens  []lexer.Token
	current int
	file    string
	diags   *diagnostics.Bag
}

// NewParser constructs a Parser over tokens produced by lexer.Scanner.
func NewParser(tokens []lexer.Token, file string, diags *diagnostics.Bag) *Parser {
	return &Parser{tokens: tokens, file: file, diags: diags}
}

// parseError is panicked by consume/expect and recovered at the
// top-level-form boundary in Parse.
type parseError struct{ msg string }

func (e parseError) Error() string { return e.msg }

// Parse reads every top-level `(module ...)` form. A form that panics
// during parsing is skipped (after resyncing to the next top-level
// paren) rather than aborting the whole file.
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{}
	for !p.isAtEnd() {
		mod := p.parseTopLevelForm()
		if mod != nil {
			prog.Modules = append(prog.Modules, mod)
		}
	}
	return prog
}

func (p *Parser) parseTopLevelForm() (mod *ast.Module) {
	start := p.current
	defer func() {
		if r := recover(); r != nil {
			p.reportRecover(r, start)
			mod = nil
			p.resyncTopLevel(start)
		}
	}()
	p.expect(lexer.TokenLParen, "expected '(' to start a module")
	p.expectKeyword("module")
	return p.finishModule()
}

func (p *Parser) reportRecover(r interface{}, start int) {
	tok := p.tokens[start]
	msg := fmt.Sprint(r)
	if pe, ok := r.(parseError); ok {
		msg = pe.msg
	}
	p.diags.Errorf(diagnostics.KindMalformedAST, p.spanAt(tok), "%s", msg)
}

// resyncTopLevel advances past the unbalanced form that just failed, so
// the next call to parseTopLevelForm starts at (or after) the next
// top-level '('.
func (p *Parser) resyncTopLevel(start int) {
	p.current = start
	depth := 0
	for !p.isAtEnd() {
		switch p.peek().Type {
		case lexer.TokenLParen:
			depth++
		case lexer.TokenRParen:
			depth--
			if depth <= 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) finishModule() *ast.Module {
	nameTok := p.expect(lexer.TokenSymbol, "expected module name")
	mod := &ast.Module{Name: nameTok.Lexeme, Location: p.locOf(nameTok)}
	for !p.check(lexer.TokenRParen) {
		p.expect(lexer.TokenLParen, "expected '(' starting a module member")
		kw := p.expect(lexer.TokenSymbol, "expected a module member keyword")
		switch kw.Lexeme {
		case "import":
			mod.Imports = append(mod.Imports, p.finishImport(kw))
		case "const":
			mod.Constants = append(mod.Constants, p.finishConst(kw))
		case "extern":
			mod.Externs = append(mod.Externs, p.finishExtern(kw))
		case "function":
			mod.Functions = append(mod.Functions, p.finishFunction(kw))
		default:
			p.fail(kw, "unknown module member %q", kw.Lexeme)
		}
	}
	p.expect(lexer.TokenRParen, "expected ')' to close module")
	return mod
}

func (p *Parser) finishImport(kw lexer.Token) ast.Import {
	path := p.expect(lexer.TokenString, "expected import path string")
	imp := ast.Import{Path: path.Lexeme, Location: p.locOf(kw)}
	if p.check(lexer.TokenString) {
		imp.Constraint = p.advance().Lexeme
	}
	p.expect(lexer.TokenRParen, "expected ')' to close import")
	return imp
}

func (p *Parser) finishConst(kw lexer.Token) *ast.ConstDecl {
	name := p.expect(lexer.TokenSymbol, "expected constant name")
	ty := p.parseTypeSpec()
	val := p.parseExpr()
	p.expect(lexer.TokenRParen, "expected ')' to close const")
	return &ast.ConstDecl{Name: name.Lexeme, Type: ty, Value: val, Location: p.locOf(kw)}
}

func (p *Parser) finishExtern(kw lexer.Token) *ast.ExternFunction {
	name := p.expect(lexer.TokenSymbol, "expected extern function name")
	params := p.parseParamList()
	ret := p.parseTypeSpec()
	p.expect(lexer.TokenRParen, "expected ')' to close extern")
	return &ast.ExternFunction{Name: name.Lexeme, Params: params, Return: ret, Location: p.locOf(kw)}
}

func (p *Parser) finishFunction(kw lexer.Token) *ast.Function {
	name := p.expect(lexer.TokenSymbol, "expected function name")
	fn := &ast.Function{Name: name.Lexeme, Location: p.locOf(kw)}
	if p.checkSymbol("pure") {
		p.advance()
		fn.Pure = true
	}
	fn.Params = p.parseParamList()
	fn.Return = p.parseTypeSpec()
	if p.checkLParenKeyword("metadata") {
		fn.Metadata = p.parseMetadata()
	}

	var stmts []ast.Stmt
	for !p.check(lexer.TokenRParen) {
		stmts = append(stmts, p.parseStmtOrTrailingExpr())
	}
	p.expect(lexer.TokenRParen, "expected ')' to close function")
	fn.Body = &ast.Block{Stmts: stmts, Location: p.locOf(kw)}
	return fn
}

// parseStmtOrTrailingExpr parses one function-body form, wrapping a bare
// trailing expression (anything whose head is not a recognized statement
// keyword) as an implicit return.
func (p *Parser) parseStmtOrTrailingExpr() ast.Stmt {
	if !p.check(lexer.TokenLParen) {
		e := p.parseExpr()
		return &ast.ReturnStmt{Value: e, Location: e.Loc()}
	}
	switch p.peekKeywordAt(1) {
	case "let", "set", "while", "return", "block":
		return p.parseStmt()
	default:
		e := p.parseExpr()
		return &ast.ReturnStmt{Value: e, Location: e.Loc()}
	}
}

func (p *Parser) parseParamList() []*ast.Param {
	p.expect(lexer.TokenLParen, "expected '(' to start a parameter list")
	var params []*ast.Param
	for !p.check(lexer.TokenRParen) {
		open := p.expect(lexer.TokenLParen, "expected '(' to start a parameter")
		ty := p.parseTypeSpec()
		name := p.expect(lexer.TokenSymbol, "expected parameter name")
		param := &ast.Param{Name: name.Lexeme, Type: ty, Location: p.locOf(open)}
		if p.checkSymbol("mut") {
			p.advance()
			param.Mutable = true
		}
		p.expect(lexer.TokenRParen, "expected ')' to close parameter")
		params = append(params, param)
	}
	p.expect(lexer.TokenRParen, "expected ')' to close parameter list")
	return params
}

// parseTypeSpec reads one type reference: a sigil-qualified wrapper, a
// compound array/map/fn form, or a bare symbol naming a primitive or
// record.
func (p *Parser) parseTypeSpec() *ast.TypeSpec {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenCaret, lexer.TokenTilde:
		p.advance()
		inner := p.parseTypeSpec()
		return &ast.TypeSpec{
			HasOwnership: true,
			Ownership:    sigilOwnership(tok.Type, false),
			Inner:        inner,
			Location:     p.locOf(tok),
		}
	case lexer.TokenAmp:
		p.advance()
		mut := false
		if p.checkSymbol("mut") {
			p.advance()
			mut = true
		}
		inner := p.parseTypeSpec()
		return &ast.TypeSpec{
			HasOwnership: true,
			Ownership:    sigilOwnership(tok.Type, mut),
			Inner:        inner,
			Location:     p.locOf(tok),
		}
	case lexer.TokenLParen:
		p.advance()
		head := p.expect(lexer.TokenSymbol, "expected a type constructor")
		switch head.Lexeme {
		case "array":
			elem := p.parseTypeSpec()
			length := 0
			if p.check(lexer.TokenInt) {
				length = int(p.parseIntLiteralValue())
			}
			p.expect(lexer.TokenRParen, "expected ')' to close array type")
			return &ast.TypeSpec{Elem: elem, Length: length, Location: p.locOf(head)}
		case "map":
			key := p.parseTypeSpec()
			val := p.parseTypeSpec()
			p.expect(lexer.TokenRParen, "expected ')' to close map type")
			return &ast.TypeSpec{IsMap: true, Key: key, Elem: val, Location: p.locOf(head)}
		case "fn":
			p.expect(lexer.TokenLParen, "expected '(' to start fn parameter types")
			var params []*ast.TypeSpec
			for !p.check(lexer.TokenRParen) {
				params = append(params, p.parseTypeSpec())
			}
			p.expect(lexer.TokenRParen, "expected ')' to close fn parameter types")
			ret := p.parseTypeSpec()
			p.expect(lexer.TokenRParen, "expected ')' to close fn type")
			return &ast.TypeSpec{Params: params, Return: ret, Location: p.locOf(head)}
		default:
			p.fail(head, "unknown type constructor %q", head.Lexeme)
		}
	case lexer.TokenSymbol:
		p.advance()
		return &ast.TypeSpec{Name: tok.Lexeme, Location: p.locOf(tok)}
	}
	p.fail(tok, "expected a type, got %q", tok.Lexeme)
	return nil
}

func sigilOwnership(t lexer.TokenType, mut bool) ast.OwnershipKind {
	switch t {
	case lexer.TokenCaret:
		return ast.OwnedKind
	case lexer.TokenTilde:
		return ast.SharedKind
	case lexer.TokenAmp:
		if mut {
			return ast.BorrowedMutKind
		}
		return ast.BorrowedKind
	}
	return ast.OwnedKind
}

func (p *Parser) parseMetadata() ast.FunctionMetadata {
	var meta ast.FunctionMetadata
	p.expect(lexer.TokenLParen, "expected '(' to start metadata")
	p.expectKeyword("metadata")
	for !p.check(lexer.TokenRParen) {
		open := p.expect(lexer.TokenLParen, "expected '(' to start a metadata item")
		kw := p.expect(lexer.TokenSymbol, "expected a metadata keyword")
		switch kw.Lexeme {
		case "intent":
			meta.Intent = p.expect(lexer.TokenString, "expected intent string").Lexeme
		case "algorithm-hint":
			meta.AlgorithmHint = p.expect(lexer.TokenString, "expected algorithm-hint string").Lexeme
		case "precondition":
			meta.Preconditions = append(meta.Preconditions, p.parseCondition(open))
		case "postcondition":
			meta.Postconditions = append(meta.Postconditions, p.parseCondition(open))
		case "complexity":
			meta.ComplexityExpectation = &ast.ComplexityExpectation{
				Value: p.expect(lexer.TokenString, "expected complexity string").Lexeme,
			}
		case "performance":
			metricTok := p.expect(lexer.TokenSymbol, "expected performance metric name")
			target := p.parseFloatLiteralValue()
			ctx := p.expect(lexer.TokenString, "expected performance context string")
			meta.PerformanceExpectation = &ast.PerformanceExpectation{
				Metric: metricTok.Lexeme, TargetValue: target, Context: ctx.Lexeme,
			}
		case "thread-safe":
			meta.ThreadSafe = p.parseBoolLiteralValue()
		case "may-block":
			meta.MayBlock = p.parseBoolLiteralValue()
		default:
			p.fail(kw, "unknown metadata item %q", kw.Lexeme)
		}
		p.expect(lexer.TokenRParen, "expected ')' to close metadata item")
	}
	p.expect(lexer.TokenRParen, "expected ')' to close metadata")
	return meta
}

func (p *Parser) parseCondition(open lexer.Token) ast.Condition {
	name := p.expect(lexer.TokenSymbol, "expected a condition name")
	pred := p.parseExpr()
	cond := ast.Condition{Name: name.Lexeme, Predicate: pred, Location: p.locOf(open)}
	if p.check(lexer.TokenString) {
		cond.Message = p.advance().Lexeme
	}
	if p.check(lexer.TokenSymbol) {
		faTok := p.advance()
		fa, ok := failActions[faTok.Lexeme]
		if !ok {
			p.fail(faTok, "unknown failure action %q", faTok.Lexeme)
		}
		cond.FailureAction = fa
	}
	return cond
}

// ---- Statements ----

func (p *Parser) parseStmt() ast.Stmt {
	open := p.expect(lexer.TokenLParen, "expected '(' to start a statement")
	kw := p.expect(lexer.TokenSymbol, "expected a statement keyword")
	switch kw.Lexeme {
	case "let":
		return p.finishLet(open)
	case "set":
		target := p.parseExpr()
		val := p.parseExpr()
		p.expect(lexer.TokenRParen, "expected ')' to close set")
		return &ast.AssignStmt{Target: target, Value: val, Location: p.locOf(open)}
	case "while":
		cond := p.parseExpr()
		body := p.parseStmtSeqBody()
		p.expect(lexer.TokenRParen, "expected ')' to close while")
		return &ast.WhileStmt{Cond: cond, Body: &ast.Block{Stmts: body, Location: p.locOf(open)}, Location: p.locOf(open)}
	case "return":
		var val ast.Expr
		if !p.check(lexer.TokenRParen) {
			val = p.parseExpr()
		}
		p.expect(lexer.TokenRParen, "expected ')' to close return")
		return &ast.ReturnStmt{Value: val, Location: p.locOf(open)}
	case "block":
		body := p.parseStmtSeqBody()
		p.expect(lexer.TokenRParen, "expected ')' to close block")
		return &ast.BlockStmt{Body: &ast.Block{Stmts: body, Location: p.locOf(open)}, Location: p.locOf(open)}
	default:
		p.fail(kw, "unknown statement keyword %q", kw.Lexeme)
	}
	return nil
}

// parseStmtSeqBody reads statement forms up to the enclosing ')', for a
// while/block body that has no separate opening delimiter of its own.
func (p *Parser) parseStmtSeqBody() []ast.Stmt {
	var stmts []ast.Stmt
	for !p.check(lexer.TokenRParen) {
		stmts = append(stmts, p.parseStmtOrTrailingExpr())
	}
	return stmts
}

func (p *Parser) finishLet(open lexer.Token) ast.Stmt {
	p.expect(lexer.TokenLParen, "expected '(' to start a let binding list")
	p.expect(lexer.TokenLParen, "expected '(' to start a let binding")
	mutable := false
	if p.checkSymbol("mut") {
		p.advance()
		mutable = true
	}
	name := p.expect(lexer.TokenSymbol, "expected a bound name")
	var ty *ast.TypeSpec
	if p.countFormsUntilClose() == 2 {
		ty = p.parseTypeSpec()
	}
	val := p.parseExpr()
	p.expect(lexer.TokenRParen, "expected ')' to close let binding")
	p.expect(lexer.TokenRParen, "expected ')' to close let binding list")
	p.expect(lexer.TokenRParen, "expected ')' to close let")
	return &ast.LetStmt{Name: name.Lexeme, Mutable: mutable, Type: ty, Value: val, Location: p.locOf(open)}
}

// countFormsUntilClose counts how many top-level forms remain before the
// next unmatched ')' — used by finishLet to tell "(name value)" apart
// from "(name typespec value)" without committing to a parse of either. A
// form is a single atom, a fully parenthesized group, or a sigil
// (^/~/& [mut]) plus the form it qualifies, all counted as one.
func (p *Parser) countFormsUntilClose() int {
	i := p.current
	count := 0
	for i < len(p.tokens) && p.tokens[i].Type != lexer.TokenRParen {
		i = p.skipFormAt(i)
		count++
	}
	return count
}

// skipFormAt returns the token index just past the form starting at i.
func (p *Parser) skipFormAt(i int) int {
	switch p.tokens[i].Type {
	case lexer.TokenLParen:
		depth := 1
		i++
		for i < len(p.tokens) && depth > 0 {
			switch p.tokens[i].Type {
			case lexer.TokenLParen:
				depth++
			case lexer.TokenRParen:
				depth--
			}
			i++
		}
		return i
	case lexer.TokenCaret, lexer.TokenTilde:
		return p.skipFormAt(i + 1)
	case lexer.TokenAmp:
		i++
		if i < len(p.tokens) && p.tokens[i].Type == lexer.TokenSymbol && p.tokens[i].Lexeme == "mut" {
			i++
		}
		return p.skipFormAt(i)
	default:
		return i + 1
	}
}

// ---- Expressions ----

func (p *Parser) parseExpr() ast.Expr {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenInt:
		p.advance()
		return &ast.IntLiteral{Value: p.parseIntLexeme(tok), Location: p.locOf(tok)}
	case lexer.TokenFloat:
		p.advance()
		return &ast.FloatLiteral{Value: p.parseFloatLexeme(tok), Location: p.locOf(tok)}
	case lexer.TokenString:
		p.advance()
		return &ast.StringLiteral{Value: tok.Lexeme, Location: p.locOf(tok)}
	case lexer.TokenAmp:
		// A bare borrow expression, "&x" or "&mut x", used as a value
		// (not as a type) inside a call argument position.
		p.advance()
		if p.checkSymbol("mut") {
			p.advance()
		}
		return p.parseExpr()
	case lexer.TokenSymbol:
		p.advance()
		switch tok.Lexeme {
		case "true":
			return &ast.BoolLiteral{Value: true, Location: p.locOf(tok)}
		case "false":
			return &ast.BoolLiteral{Value: false, Location: p.locOf(tok)}
		default:
			return &ast.VarRef{Name: tok.Lexeme, Location: p.locOf(tok)}
		}
	case lexer.TokenLParen:
		return p.parseParenExpr()
	}
	p.fail(tok, "expected an expression, got %q", tok.Lexeme)
	return nil
}

func (p *Parser) parseParenExpr() ast.Expr {
	open := p.expect(lexer.TokenLParen, "expected '('")
	head := p.peek()
	if head.Type == lexer.TokenSymbol {
		switch head.Lexeme {
		case "if":
			p.advance()
			return p.finishIf(open)
		case "array-length":
			p.advance()
			var operand ast.Expr
			if !p.check(lexer.TokenRParen) {
				operand = p.parseExpr()
			}
			p.expect(lexer.TokenRParen, "expected ')' to close array-length")
			return &ast.Intrinsic{Kind: ast.ArrayLength, Operand: operand, Location: p.locOf(open)}
		case "return-value":
			p.advance()
			p.expect(lexer.TokenRParen, "expected ')' to close return-value")
			return &ast.Intrinsic{Kind: ast.ReturnValue, Location: p.locOf(open)}
		case ".":
			p.advance()
			obj := p.parseExpr()
			field := p.expect(lexer.TokenSymbol, "expected a field name")
			p.expect(lexer.TokenRParen, "expected ')' to close field access")
			return &ast.FieldAccessExpr{Object: obj, Field: field.Lexeme, Location: p.locOf(open)}
		case "at":
			p.advance()
			arr := p.parseExpr()
			idx := p.parseExpr()
			p.expect(lexer.TokenRParen, "expected ')' to close at")
			return &ast.ArrayAccessExpr{Array: arr, Index: idx, Location: p.locOf(open)}
		case "!":
			p.advance()
			operand := p.parseExpr()
			p.expect(lexer.TokenRParen, "expected ')' to close unary expression")
			return &ast.UnaryExpr{Op: "!", Operand: operand, Location: p.locOf(open)}
		case "-":
			// "-" is unary negation with one operand, binary subtraction
			// with two — arity, not spelling, tells them apart.
			p.advance()
			first := p.parseExpr()
			if p.check(lexer.TokenRParen) {
				p.advance()
				return &ast.UnaryExpr{Op: "-", Operand: first, Location: p.locOf(open)}
			}
			second := p.parseExpr()
			p.expect(lexer.TokenRParen, "expected ')' to close binary expression")
			return &ast.BinaryExpr{Op: "-", Left: first, Right: second, Location: p.locOf(open)}
		}
		if binaryOps[head.Lexeme] {
			p.advance()
			left := p.parseExpr()
			right := p.parseExpr()
			p.expect(lexer.TokenRParen, "expected ')' to close binary expression")
			return &ast.BinaryExpr{Op: head.Lexeme, Left: left, Right: right, Location: p.locOf(open)}
		}
		// Function call: (callee arg*)
		callee := p.expect(lexer.TokenSymbol, "expected a callee name")
		var args []ast.Expr
		for !p.check(lexer.TokenRParen) {
			args = append(args, p.parseExpr())
		}
		p.expect(lexer.TokenRParen, "expected ')' to close call")
		return &ast.CallExpr{Callee: callee.Lexeme, Args: args, Location: p.locOf(open)}
	}
	p.fail(head, "expected a symbol after '(' in an expression")
	return nil
}

func (p *Parser) finishIf(open lexer.Token) ast.Expr {
	cond := p.parseExpr()
	thenBranch := p.parseBranch()
	var elseBranch *ast.Block
	if !p.check(lexer.TokenRParen) {
		elseBranch = p.parseBranch()
	}
	p.expect(lexer.TokenRParen, "expected ')' to close if")
	return &ast.IfExpr{Cond: cond, ThenBranch: thenBranch, ElseBranch: elseBranch, Location: p.locOf(open)}
}

// parseBranch reads one if-branch: a parenthesized sequence of forms
// whose last bare-expression form is the branch's value, per
// internal/semantic.checkBlockValue's convention.
func (p *Parser) parseBranch() *ast.Block {
	open := p.expect(lexer.TokenLParen, "expected '(' to start an if-branch")
	var stmts []ast.Stmt
	for !p.check(lexer.TokenRParen) {
		stmts = append(stmts, p.parseBranchForm())
	}
	p.expect(lexer.TokenRParen, "expected ')' to close if-branch")
	return &ast.Block{Stmts: stmts, Location: p.locOf(open)}
}

// parseBranchForm is like parseStmtOrTrailingExpr but wraps a bare
// expression as an ExprStmt (the branch value), not a ReturnStmt.
func (p *Parser) parseBranchForm() ast.Stmt {
	if !p.check(lexer.TokenLParen) {
		e := p.parseExpr()
		return &ast.ExprStmt{Value: e, Location: e.Loc()}
	}
	switch p.peekKeywordAt(1) {
	case "let", "set", "while", "return", "block":
		return p.parseStmt()
	default:
		e := p.parseExpr()
		return &ast.ExprStmt{Value: e, Location: e.Loc()}
	}
}

// ---- token-stream helpers (teacher's match/check/consume/advance shape) ----

func (p *Parser) check(t lexer.TokenType) bool {
	return p.peek().Type == t
}

func (p *Parser) checkSymbol(lexeme string) bool {
	tok := p.peek()
	return tok.Type == lexer.TokenSymbol && tok.Lexeme == lexeme
}

func (p *Parser) checkLParenKeyword(kw string) bool {
	return p.peek().Type == lexer.TokenLParen &&
		p.peekAt(1).Type == lexer.TokenSymbol && p.peekAt(1).Lexeme == kw
}

// peekKeywordAt returns the symbol lexeme n tokens after the current '(',
// or "" if that token isn't a symbol — used to dispatch a parenthesized
// form without committing to consuming it.
func (p *Parser) peekKeywordAt(n int) string {
	tok := p.peekAt(n)
	if tok.Type != lexer.TokenSymbol {
		return ""
	}
	return tok.Lexeme
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.current]
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) peek() lexer.Token { return p.tokens[p.current] }

func (p *Parser) peekAt(n int) lexer.Token {
	idx := p.current + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[idx]
}

func (p *Parser) isAtEnd() bool { return p.tokens[p.current].Type == lexer.TokenEOF }

func (p *Parser) expect(t lexer.TokenType, msg string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	tok := p.peek()
	panic(parseError{msg: fmt.Sprintf("%s, got %q", msg, tok.Lexeme)})
}

func (p *Parser) expectKeyword(kw string) lexer.Token {
	if p.checkSymbol(kw) {
		return p.advance()
	}
	tok := p.peek()
	panic(parseError{msg: fmt.Sprintf("expected keyword %q, got %q", kw, tok.Lexeme)})
}

func (p *Parser) fail(tok lexer.Token, format string, args ...interface{}) {
	panic(parseError{msg: fmt.Sprintf(format, args...) + fmt.Sprintf(" (at %d:%d)", tok.Line, tok.Column)})
}

func (p *Parser) parseIntLexeme(tok lexer.Token) int64 {
	v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
	if err != nil {
		p.fail(tok, "malformed integer literal %q", tok.Lexeme)
	}
	return v
}

func (p *Parser) parseFloatLexeme(tok lexer.Token) float64 {
	v, err := strconv.ParseFloat(tok.Lexeme, 64)
	if err != nil {
		p.fail(tok, "malformed float literal %q", tok.Lexeme)
	}
	return v
}

func (p *Parser) parseIntLiteralValue() int64 {
	tok := p.expect(lexer.TokenInt, "expected an integer literal")
	return p.parseIntLexeme(tok)
}

func (p *Parser) parseFloatLiteralValue() float64 {
	if p.check(lexer.TokenInt) {
		tok := p.advance()
		return float64(p.parseIntLexeme(tok))
	}
	tok := p.expect(lexer.TokenFloat, "expected a float literal")
	return p.parseFloatLexeme(tok)
}

func (p *Parser) parseBoolLiteralValue() bool {
	tok := p.expect(lexer.TokenSymbol, "expected a boolean literal")
	switch tok.Lexeme {
	case "true":
		return true
	case "false":
		return false
	default:
		p.fail(tok, "expected true or false, got %q", tok.Lexeme)
		return false
	}
}

func (p *Parser) locOf(tok lexer.Token) ast.SourceLocation {
	return ast.SourceLocation{File: p.file, Line: tok.Line, Column: tok.Column}
}

func (p *Parser) spanAt(tok lexer.Token) diagnostics.SourceSpan {
	return diagnostics.SourceSpan{File: p.file, Line: tok.Line, Column: tok.Column}
}
