package plan

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kartikbazzad/minipg/internal/sqlerr"
	"github.com/kartikbazzad/minipg/internal/token"
)

// compiler states for the SELECT finite state machine. The machine never
// rewinds; tokens are consumed left to right in one pass.
type state uint8

const (
	stateStart state = iota
	stateSelectList
	stateFrom
	stateJoinOrClause
	stateJoin
	stateOn
	stateOrderBy
	stateGroupBy
	stateLimit
)

// CompileSelect runs the state machine over a SELECT token stream. Unknown
// tokens are logged and skipped; unresolved constructs degrade gracefully
// instead of failing the statement.
func CompileSelect(log *zap.SugaredLogger, tokens []token.Token) (*SelectPlan, error) {
	p := &SelectPlan{
		Joins: make(map[string]JoinSpec),
	}

	st := stateStart
	joinKind := ""
	joinTable := ""

	for _, tok := range tokens {
		if tok.Kind == token.Whitespace {
			continue
		}
		switch st {
		case stateStart:
			if tok.Kind == token.Keyword && tok.Text == "SELECT" {
				st = stateSelectList
			}

		case stateSelectList:
			switch {
			case tok.Kind == token.Keyword && tok.Text == "FROM":
				st = stateFrom
			case tok.Kind == token.IdentifierList:
				p.Select = append(p.Select, tok.Parts...)
			case tok.Kind == token.Identifier || tok.Kind == token.Wildcard ||
				tok.Kind == token.FunctionCall:
				p.Select = append(p.Select, tok.Text)
			default:
				log.Debugf("select list: unresolved token %q", tok.Text)
			}

		case stateFrom:
			if tok.Kind == token.Identifier || tok.Kind == token.Keyword {
				p.From = tok.Text
				st = stateJoinOrClause
			} else {
				log.Debugf("from: unresolved token %q", tok.Text)
			}

		case stateJoinOrClause:
			switch {
			case tok.Kind == token.Keyword && isJoinKeyword(tok.Text):
				joinKind = tok.Text
				st = stateJoin
			case tok.Kind == token.WhereClause:
				p.Where = strings.TrimSpace(strings.TrimPrefix(tok.Text, "WHERE"))
			case tok.Kind == token.Keyword && tok.Text == "ORDER BY":
				st = stateOrderBy
			case tok.Kind == token.Keyword && tok.Text == "GROUP BY":
				st = stateGroupBy
			case tok.Kind == token.Keyword && tok.Text == "LIMIT":
				st = stateLimit
			default:
				log.Debugf("join-or-clause: unresolved token %q", tok.Text)
			}

		case stateJoin:
			if tok.Kind == token.Identifier {
				joinTable = tok.Text
				st = stateOn
			}

		case stateOn:
			if tok.Kind == token.Comparison && len(tok.Parts) == 3 {
				p.Joins[joinTable] = JoinSpec{
					Kind:        joinKind,
					LeftColumn:  bareColumn(tok.Parts[0]),
					RightColumn: bareColumn(tok.Parts[2]),
				}
				p.JoinOrder = append(p.JoinOrder, joinTable)
				joinKind, joinTable = "", ""
				st = stateJoinOrClause
			}

		case stateOrderBy:
			switch tok.Kind {
			case token.IdentifierList:
				p.OrderBy = append(p.OrderBy, tok.Parts...)
			case token.Identifier:
				p.OrderBy = append(p.OrderBy, tok.Text)
			}
			st = stateJoinOrClause

		case stateGroupBy:
			switch tok.Kind {
			case token.IdentifierList:
				p.GroupBy = append(p.GroupBy, tok.Parts...)
			case token.Identifier, token.Keyword:
				p.GroupBy = append(p.GroupBy, tok.Text)
			}
			st = stateJoinOrClause

		case stateLimit:
			if tok.Kind == token.IntegerLiteral {
				n, err := strconv.Atoi(tok.Text)
				if err == nil {
					p.Limit = n
				}
			}
			st = stateJoinOrClause
		}
	}
	return p, nil
}

func isJoinKeyword(kw string) bool {
	switch kw {
	case "JOIN", "INNER JOIN", "LEFT JOIN", "RIGHT JOIN", "FULL JOIN":
		return true
	}
	return false
}

// bareColumn strips a "table." qualifier from one side of an ON comparison.
func bareColumn(ref string) string {
	if i := strings.LastIndex(ref, "."); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// CompileInsert scans the token stream for the INTO target (a function-call
// token: table name plus parenthesized column list) and the VALUES tuple list.
func CompileInsert(log *zap.SugaredLogger, tokens []token.Token) (*InsertPlan, error) {
	p := &InsertPlan{}
	target := ""

	for _, tok := range tokens {
		switch {
		case tok.Kind == token.Keyword && (tok.Text == "INSERT" || tok.Text == "INTO"):
			target = "table"
		case tok.Kind == token.Keyword && tok.Text == "VALUES":
			target = "values"
		case tok.Kind == token.FunctionCall && target == "table":
			p.Table = strings.TrimSpace(tok.Parts[0])
			for _, col := range strings.Split(tok.Parts[1], ",") {
				p.Columns = append(p.Columns, strings.TrimSpace(col))
			}
		case tok.Kind == token.Identifier && target == "table" && p.Table == "":
			p.Table = tok.Text
		case tok.Kind == token.ValueList:
			records, err := valuesToRecords(tok.Text)
			if err != nil {
				return nil, err
			}
			p.Values = records
		case tok.Kind == token.Whitespace:
		default:
			log.Debugf("insert: unresolved token %q for %q", tok.Text, target)
		}
	}
	return p, nil
}

var (
	createTableNameRe = regexp.MustCompile(`(?i)CREATE TABLE (.+?)\(`)
	createColumnsRe   = regexp.MustCompile(`\((.+)\)`)
)

// CompileCreateTable extracts the table name and column list directly from
// the statement text: the name sits between CREATE TABLE and the first '(',
// the columns inside the outermost parentheses.
func CompileCreateTable(stmt string) (*CreateTablePlan, error) {
	nameMatch := createTableNameRe.FindStringSubmatch(stmt)
	if nameMatch == nil {
		return nil, sqlerr.MalformedCreateTable("Table name not found")
	}
	colsMatch := createColumnsRe.FindStringSubmatch(stmt)
	if colsMatch == nil {
		return nil, sqlerr.MalformedCreateTable("Columns not found")
	}

	p := &CreateTablePlan{Table: strings.TrimSpace(nameMatch[1])}
	for _, def := range strings.Split(colsMatch[1], ",") {
		fields := strings.Fields(def)
		if len(fields) == 0 {
			continue
		}
		col := ColumnDef{Name: fields[0]}
		if len(fields) > 1 {
			col.Type = strings.Join(fields[1:], " ")
		}
		p.Columns = append(p.Columns, col)
	}
	if len(p.Columns) == 0 {
		return nil, sqlerr.MalformedCreateTable("Columns not found")
	}
	return p, nil
}
