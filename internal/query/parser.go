package query

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/quirkdb/quirkdb/internal/jsonrow"
	"github.com/quirkdb/quirkdb/internal/types"
)

// Parser walks a token stream produced by Lexer and builds a Query AST.
type Parser struct {
	toks []Token
	pos  int
}

// Parse tokenizes and parses sql into a Query AST. Parsing is deterministic:
// the same input always produces an identical AST.
func Parse(sql string) (*Query, error) {
	s := strings.TrimSpace(sql)
	lex := NewLexer(s)
	toks, err := lex.Tokenize()
	if err != nil {
		return nil, err
	}
	// Drop a trailing ';' symbol if present.
	toks = stripTrailingSemicolon(toks)

	p := &Parser{toks: toks}
	return p.parseStatement()
}

func stripTrailingSemicolon(toks []Token) []Token {
	n := len(toks)
	if n >= 2 && toks[n-2].Type == TokSymbol && toks[n-2].Text == ";" {
		return append(toks[:n-2:n-2], toks[n-1])
	}
	return toks
}

func (p *Parser) cur() Token {
	if p.pos >= len(p.toks) {
		return Token{Type: TokEOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

// atKeyword reports whether the current token is an identifier matching kw
// (case-insensitive) without consuming it.
func (p *Parser) atKeyword(kw string) bool {
	t := p.cur()
	return t.Type == TokIdent && eqFold(t.Text, kw)
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.atKeyword(kw) {
		return fmt.Errorf("query: %w: expected %s, got %q", types.ErrUnsupportedShape, kw, p.cur().Text)
	}
	p.advance()
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	t := p.cur()
	if t.Type != TokIdent {
		return "", fmt.Errorf("query: %w: expected identifier, got %q", types.ErrUnsupportedShape, t.Text)
	}
	p.advance()
	return t.Text, nil
}

func (p *Parser) expectSymbol(sym string) error {
	t := p.cur()
	if t.Type != TokSymbol || t.Text != sym {
		return fmt.Errorf("query: %w: expected %q, got %q", types.ErrUnsupportedShape, sym, t.Text)
	}
	p.advance()
	return nil
}

func (p *Parser) atSymbol(sym string) bool {
	t := p.cur()
	return t.Type == TokSymbol && t.Text == sym
}

func (p *Parser) atEOF() bool { return p.cur().Type == TokEOF }

func (p *Parser) parseStatement() (*Query, error) {
	t := p.cur()
	if t.Type != TokIdent {
		return nil, fmt.Errorf("query: %w", types.ErrUnsupportedShape)
	}
	switch {
	case eqFold(t.Text, "INSERT"):
		return p.parseInsert()
	case eqFold(t.Text, "UPDATE"):
		return p.parseUpdate()
	case eqFold(t.Text, "DELETE"):
		return p.parseDelete()
	case eqFold(t.Text, "BATCH"):
		return p.parseBatch()
	case eqFold(t.Text, "SELECT"):
		return p.parseSelect()
	default:
		return nil, fmt.Errorf("query: %w: unrecognized statement %q", types.ErrUnsupportedShape, t.Text)
	}
}

// --- INSERT ---

func (p *Parser) parseInsert() (*Query, error) {
	p.advance() // INSERT
	if err := p.expectKeyword("INTO"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	q := newQuery(KindInsert)
	q.Table = table

	if p.atSymbol("(") {
		// INSERT INTO tbl (cols) VALUES (vals)
		cols, err := p.parseParenIdentList()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("VALUES"); err != nil {
			return nil, err
		}
		vals, err := p.parseParenValueList()
		if err != nil {
			return nil, err
		}
		if len(cols) != len(vals) {
			return nil, fmt.Errorf("query: %w: column/value count mismatch", types.ErrUnsupportedShape)
		}
		row := types.NewRow()
		for i, c := range cols {
			row.Set(c, vals[i])
		}
		q.RowData = row
		if !p.atEOF() {
			return nil, fmt.Errorf("query: %w: trailing input after INSERT", types.ErrUnsupportedShape)
		}
		return q, nil
	}

	if err := p.expectKeyword("VALUES"); err != nil {
		return nil, err
	}
	jsonTok := p.cur()
	if jsonTok.Type != TokJSON || !strings.HasPrefix(jsonTok.Text, "{") {
		return nil, fmt.Errorf("query: %w: expected JSON object after VALUES", types.ErrBadJSON)
	}
	p.advance()
	row, err := jsonrow.Decode([]byte(jsonTok.Text))
	if err != nil {
		return nil, fmt.Errorf("query: %w: %v", types.ErrBadJSON, err)
	}
	q.RowData = row
	if !p.atEOF() {
		return nil, fmt.Errorf("query: %w: trailing input after INSERT", types.ErrUnsupportedShape)
	}
	return q, nil
}

func (p *Parser) parseParenIdentList() ([]string, error) {
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var out []string
	for {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		out = append(out, name)
		if p.atSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return out, nil
}

// parseParenValueList parses a parenthesized, comma-separated list of
// literal values (strings, numbers, or bare words), taken verbatim as
// strings.
func (p *Parser) parseParenValueList() ([]string, error) {
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	var out []string
	for {
		t := p.cur()
		switch t.Type {
		case TokString, TokNumber, TokIdent:
			out = append(out, t.Text)
			p.advance()
		default:
			return nil, fmt.Errorf("query: %w: expected value, got %q", types.ErrUnsupportedShape, t.Text)
		}
		if p.atSymbol(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	return out, nil
}

// --- UPDATE ---

func (p *Parser) parseUpdate() (*Query, error) {
	p.advance() // UPDATE
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("SET"); err != nil {
		return nil, err
	}
	q := newQuery(KindUpdate)
	q.Table = table

	if p.cur().Type == TokJSON && strings.HasPrefix(p.cur().Text, "{") {
		row, err := jsonrow.Decode([]byte(p.cur().Text))
		if err != nil {
			return nil, fmt.Errorf("query: %w: %v", types.ErrBadJSON, err)
		}
		p.advance()
		q.RowData = row
	} else {
		field, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp("="); err != nil {
			return nil, err
		}
		t := p.cur()
		if t.Type != TokString {
			return nil, fmt.Errorf("query: %w: expected quoted value", types.ErrBadCondition)
		}
		p.advance()
		row := types.NewRow()
		row.Set(field, t.Text)
		q.RowData = row
	}

	if p.atKeyword("WHERE") {
		p.advance()
		conds, err := p.parseConditions()
		if err != nil {
			return nil, err
		}
		q.Conditions = conds
	}
	if !p.atEOF() {
		return nil, fmt.Errorf("query: %w: trailing input after UPDATE", types.ErrUnsupportedShape)
	}
	return q, nil
}

func (p *Parser) expectOp(op string) error {
	t := p.cur()
	if t.Type != TokOp || t.Text != op {
		return fmt.Errorf("query: %w: expected %q, got %q", types.ErrBadCondition, op, t.Text)
	}
	p.advance()
	return nil
}

// parseConditions parses a flat AND chain of `field op 'literal'`
// predicates. OR is not supported in the normative dialect:
// encountering the OR keyword is a parse error.
func (p *Parser) parseConditions() ([]Condition, error) {
	var out []Condition
	for {
		cond, err := p.parseOneCondition()
		if err != nil {
			return nil, err
		}
		out = append(out, cond)
		if p.atKeyword("AND") {
			p.advance()
			continue
		}
		if p.atKeyword("OR") {
			return nil, fmt.Errorf("query: %w: OR is not supported in the flat-AND WHERE dialect", types.ErrUnsupportedShape)
		}
		break
	}
	return out, nil
}

func (p *Parser) parseOneCondition() (Condition, error) {
	field, err := p.parseQualifiedField()
	if err != nil {
		return Condition{}, err
	}
	t := p.cur()
	var op string
	switch {
	case t.Type == TokOp:
		op = t.Text
		p.advance()
	case t.Type == TokIdent && eqFold(t.Text, "LIKE"):
		op = "LIKE"
		p.advance()
	default:
		return Condition{}, fmt.Errorf("query: %w: expected operator, got %q", types.ErrBadCondition, t.Text)
	}
	lit := p.cur()
	if lit.Type != TokString {
		return Condition{}, fmt.Errorf("query: %w: expected quoted literal, got %q", types.ErrBadCondition, lit.Text)
	}
	p.advance()
	return Condition{Field: field, Op: op, Literal: lit.Text}, nil
}

// parseQualifiedField parses `ident` or `ident.ident`.
func (p *Parser) parseQualifiedField() (string, error) {
	first, err := p.expectIdent()
	if err != nil {
		return "", err
	}
	if p.atSymbol(".") {
		p.advance()
		second, err := p.expectIdent()
		if err != nil {
			return "", err
		}
		return first + "." + second, nil
	}
	return first, nil
}

// --- DELETE ---

func (p *Parser) parseDelete() (*Query, error) {
	p.advance() // DELETE
	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	q := newQuery(KindDelete)
	q.Table = table

	if p.atKeyword("KEYS") {
		p.advance()
		t := p.cur()
		if t.Type != TokJSON || !strings.HasPrefix(t.Text, "[") {
			return nil, fmt.Errorf("query: %w: expected JSON array after KEYS", types.ErrBadJSON)
		}
		p.advance()
		var keys []string
		if err := json.Unmarshal([]byte(t.Text), &keys); err != nil {
			return nil, fmt.Errorf("query: %w: %v", types.ErrBadJSON, err)
		}
		q.DeleteKeys = keys
		if !p.atEOF() {
			return nil, fmt.Errorf("query: %w: trailing input after DELETE KEYS", types.ErrUnsupportedShape)
		}
		return q, nil
	}

	if p.atKeyword("WHERE") {
		p.advance()
		conds, err := p.parseConditions()
		if err != nil {
			return nil, err
		}
		q.Conditions = conds
	}
	if !p.atEOF() {
		return nil, fmt.Errorf("query: %w: trailing input after DELETE", types.ErrUnsupportedShape)
	}
	return q, nil
}

// --- BATCH ---

func (p *Parser) parseBatch() (*Query, error) {
	p.advance() // BATCH
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	t := p.cur()
	if t.Type != TokJSON || !strings.HasPrefix(t.Text, "{") {
		return nil, fmt.Errorf("query: %w: expected JSON object after BATCH table", types.ErrBadJSON)
	}
	p.advance()

	rows, err := jsonrow.DecodeRows([]byte(t.Text))
	if err != nil {
		return nil, fmt.Errorf("query: %w: %v", types.ErrBadJSON, err)
	}
	q := newQuery(KindBatch)
	q.Table = table
	q.BatchRows = rows
	if !p.atEOF() {
		return nil, fmt.Errorf("query: %w: trailing input after BATCH", types.ErrUnsupportedShape)
	}
	return q, nil
}

// --- SELECT ---

func (p *Parser) parseSelect() (*Query, error) {
	p.advance() // SELECT
	q := newQuery(KindSelect)

	proj, isCount, aggs, err := p.parseProjection()
	if err != nil {
		return nil, err
	}
	q.Projection = proj
	q.IsCount = isCount
	q.Aggregates = aggs

	if err := p.expectKeyword("FROM"); err != nil {
		return nil, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	q.Table = table
	q.Alias = table
	if p.cur().Type == TokIdent && !isClauseKeyword(p.cur().Text) {
		q.Alias, _ = p.expectIdent()
	}

	for p.atKeyword("INNER") || p.atKeyword("LEFT") || p.atKeyword("JOIN") {
		j, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		q.Joins = append(q.Joins, j)
	}

	if p.atKeyword("WHERE") {
		p.advance()
		conds, err := p.parseConditions()
		if err != nil {
			return nil, err
		}
		q.Conditions = conds
	}

	if p.atKeyword("GROUP") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		field, err := p.parseQualifiedField()
		if err != nil {
			return nil, err
		}
		q.GroupBy = field
	}

	if p.atKeyword("ORDER") {
		p.advance()
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		field, err := p.parseQualifiedField()
		if err != nil {
			return nil, err
		}
		q.OrderByField = field
		if p.atKeyword("DESC") {
			p.advance()
			q.OrderDesc = true
		} else if p.atKeyword("ASC") {
			p.advance()
		}
	}

	if p.atKeyword("SKIP") {
		p.advance()
		n, err := p.expectNumber()
		if err != nil {
			return nil, err
		}
		q.Skip = n
	}
	if p.atKeyword("LIMIT") {
		p.advance()
		n, err := p.expectNumber()
		if err != nil {
			return nil, err
		}
		q.Limit = n
	}

	if !p.atEOF() {
		return nil, fmt.Errorf("query: %w: trailing input after SELECT", types.ErrUnsupportedShape)
	}
	return q, nil
}

func (p *Parser) expectNumber() (int, error) {
	t := p.cur()
	if t.Type != TokNumber {
		return 0, fmt.Errorf("query: %w: expected number, got %q", types.ErrUnsupportedShape, t.Text)
	}
	p.advance()
	n, err := strconv.Atoi(t.Text)
	if err != nil {
		return 0, fmt.Errorf("query: %w: bad number %q", types.ErrUnsupportedShape, t.Text)
	}
	return n, nil
}

var clauseKeywords = map[string]bool{
	"INNER": true, "LEFT": true, "JOIN": true, "WHERE": true,
	"GROUP": true, "ORDER": true, "SKIP": true, "LIMIT": true,
}

func isClauseKeyword(ident string) bool {
	return clauseKeywords[strings.ToUpper(ident)]
}

// parseProjection parses the comma-separated SELECT list: "*", "COUNT(*)",
// bare/qualified field names, or "SUM(field) [AS alias]" terms.
func (p *Parser) parseProjection() (fields []string, isCount bool, aggs []Aggregate, err error) {
	for {
		if p.atSymbol("*") {
			p.advance()
			fields = append(fields, "*")
		} else if p.atKeyword("COUNT") {
			p.advance()
			if err := p.expectSymbol("("); err != nil {
				return nil, false, nil, err
			}
			if err := p.expectSymbol("*"); err != nil {
				return nil, false, nil, err
			}
			if err := p.expectSymbol(")"); err != nil {
				return nil, false, nil, err
			}
			isCount = true
		} else if p.atKeyword("SUM") {
			p.advance()
			if err := p.expectSymbol("("); err != nil {
				return nil, false, nil, err
			}
			field, err := p.parseQualifiedField()
			if err != nil {
				return nil, false, nil, err
			}
			if err := p.expectSymbol(")"); err != nil {
				return nil, false, nil, err
			}
			alias := field
			if p.atKeyword("AS") {
				p.advance()
				alias, err = p.expectIdent()
				if err != nil {
					return nil, false, nil, err
				}
			}
			aggs = append(aggs, Aggregate{Field: field, Alias: alias})
		} else {
			field, err := p.parseQualifiedField()
			if err != nil {
				return nil, false, nil, err
			}
			fields = append(fields, field)
		}

		if p.atSymbol(",") {
			p.advance()
			continue
		}
		break
	}

	if isCount && (len(fields) > 0 || len(aggs) > 0) {
		return nil, false, nil, fmt.Errorf("query: %w: COUNT(*) is mutually exclusive with other projections", types.ErrUnsupportedShape)
	}
	return fields, isCount, aggs, nil
}

func (p *Parser) parseJoin() (Join, error) {
	kind := InnerJoin
	if p.atKeyword("INNER") {
		p.advance()
	} else if p.atKeyword("LEFT") {
		p.advance()
		if p.atKeyword("OUTER") {
			p.advance()
		}
		kind = LeftOuterJoin
	}
	if err := p.expectKeyword("JOIN"); err != nil {
		return Join{}, err
	}
	table, err := p.expectIdent()
	if err != nil {
		return Join{}, err
	}
	alias := table
	if p.cur().Type == TokIdent && !eqFold(p.cur().Text, "ON") {
		alias, _ = p.expectIdent()
	}
	if err := p.expectKeyword("ON"); err != nil {
		return Join{}, err
	}
	leftQual, leftField, err := p.parseDottedPair()
	if err != nil {
		return Join{}, err
	}
	if err := p.expectOp("="); err != nil {
		return Join{}, err
	}
	rightQual, rightField, err := p.parseDottedPair()
	if err != nil {
		return Join{}, err
	}
	return Join{
		Kind: kind, Table: table, Alias: alias,
		LeftQualifier: leftQual, LeftField: leftField,
		RightQualifier: rightQual, RightField: rightField,
	}, nil
}

func (p *Parser) parseDottedPair() (qualifier, field string, err error) {
	first, err := p.expectIdent()
	if err != nil {
		return "", "", err
	}
	if err := p.expectSymbol("."); err != nil {
		return "", "", err
	}
	second, err := p.expectIdent()
	if err != nil {
		return "", "", err
	}
	return first, second, nil
}
