// Package token turns a SQL statement into the typed token stream consumed by
// the plan compiler.
//
// The stream mirrors the classic SQL-tokenizer shape: keywords, identifiers,
// identifier lists, wildcards, comparisons, function calls, parenthesized
// value lists, and a WHERE clause swallowed whole as a single token. The plan
// compiler only ever sees this interface; character-level concerns (quoting,
// bracket matching) stay here.
package token

import (
	"strconv"
	"strings"
)

type Kind uint8

const (
	Whitespace Kind = iota
	Keyword
	Identifier
	IdentifierList
	Wildcard
	IntegerLiteral
	Comparison
	FunctionCall
	ValueList
	WhereClause
)

// Token is one element of the stream.
//
// Parts carries sub-structure for composite tokens: the members of an
// identifier list, [left, op, right] for a comparison, and [name, args] for a
// function call.
type Token struct {
	Kind  Kind
	Text  string
	Parts []string
}

// Command classifies a statement by its leading keyword.
type Command uint8

const (
	CommandUnsupported Command = iota
	CommandSelect
	CommandInsert
	CommandCreate
)

// Classify returns the statement's command kind and the leading word used to
// classify it.
func Classify(stmt string) (Command, string) {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return CommandUnsupported, ""
	}
	word := strings.ToUpper(fields[0])
	switch word {
	case "SELECT":
		return CommandSelect, word
	case "INSERT":
		return CommandInsert, word
	case "CREATE":
		return CommandCreate, word
	}
	return CommandUnsupported, word
}

// lexeme kinds produced by the character scanner.
type lexKind uint8

const (
	lexWord lexKind = iota
	lexString
	lexGroup
	lexOp
	lexComma
)

type lexeme struct {
	kind lexKind
	text string
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// scan splits the statement into lexemes, keeping quoted strings and balanced
// parenthesized groups intact.
func scan(stmt string) []lexeme {
	var out []lexeme
	i := 0
	for i < len(stmt) {
		b := stmt[i]
		switch {
		case isSpace(b):
			i++
		case b == '\'':
			j := i + 1
			for j < len(stmt) && stmt[j] != '\'' {
				j++
			}
			if j < len(stmt) {
				j++
			}
			out = append(out, lexeme{lexString, stmt[i:j]})
			i = j
		case b == '(':
			depth := 0
			inQuote := false
			j := i
			for j < len(stmt) {
				switch stmt[j] {
				case '\'':
					inQuote = !inQuote
				case '(':
					if !inQuote {
						depth++
					}
				case ')':
					if !inQuote {
						depth--
					}
				}
				j++
				if depth == 0 && !inQuote {
					break
				}
			}
			out = append(out, lexeme{lexGroup, stmt[i:j]})
			i = j
		case b == ',':
			out = append(out, lexeme{lexComma, ","})
			i++
		case b == '<' || b == '>' || b == '!' || b == '=':
			if i+1 < len(stmt) && stmt[i+1] == '=' && b != '=' {
				out = append(out, lexeme{lexOp, stmt[i : i+2]})
				i += 2
			} else {
				out = append(out, lexeme{lexOp, string(b)})
				i++
			}
		default:
			j := i
			for j < len(stmt) {
				c := stmt[j]
				if isSpace(c) || c == ',' || c == '(' || c == ')' || c == '\'' ||
					c == '<' || c == '>' || c == '!' || c == '=' {
					break
				}
				j++
			}
			out = append(out, lexeme{lexWord, stmt[i:j]})
			i = j
		}
	}
	return out
}

var keywords = map[string]bool{
	"SELECT": true, "FROM": true, "JOIN": true, "ON": true,
	"INSERT": true, "INTO": true, "VALUES": true,
	"CREATE": true, "TABLE": true,
	"LIMIT": true, "AS": true, "BY": true,
	"AND": true, "OR": true, "NOT": true,
	"ASC": true, "DESC": true,
}

var joinPrefixes = map[string]bool{
	"INNER": true, "LEFT": true, "RIGHT": true, "FULL": true,
}

var comparisonOps = map[string]bool{
	"=": true, "<": true, ">": true, "<=": true, ">=": true, "!=": true,
}

func upperWord(lexemes []lexeme, i int) string {
	if i < 0 || i >= len(lexemes) || lexemes[i].kind != lexWord {
		return ""
	}
	return strings.ToUpper(lexemes[i].text)
}

// clauseBoundary reports whether position i starts ORDER BY, GROUP BY, or
// LIMIT; used to end the WHERE clause swallow.
func clauseBoundary(lexemes []lexeme, i int) bool {
	switch upperWord(lexemes, i) {
	case "LIMIT":
		return true
	case "ORDER", "GROUP":
		return upperWord(lexemes, i+1) == "BY"
	}
	return false
}

// elementAt parses one projection/identifier element starting at i: a word
// (optionally merged with a trailing ASC/DESC direction), a wildcard, or a
// function call (word immediately followed by a parenthesized group). Returns
// the element's text, its token kind, and the next position.
func elementAt(lexemes []lexeme, i int) (string, Kind, int, bool) {
	if i >= len(lexemes) || lexemes[i].kind != lexWord {
		return "", 0, i, false
	}
	word := lexemes[i].text
	if word == "*" {
		return word, Wildcard, i + 1, true
	}
	if keywords[strings.ToUpper(word)] || joinPrefixes[strings.ToUpper(word)] ||
		strings.ToUpper(word) == "WHERE" {
		return "", 0, i, false
	}
	if i+1 < len(lexemes) && lexemes[i+1].kind == lexGroup {
		inner := strings.Trim(lexemes[i+1].text, "()")
		return word + "(" + inner + ")", FunctionCall, i + 2, true
	}
	if dir := upperWord(lexemes, i+1); dir == "ASC" || dir == "DESC" {
		return word + " " + dir, Identifier, i + 2, true
	}
	if _, err := strconv.Atoi(word); err == nil {
		return word, IntegerLiteral, i + 1, true
	}
	return word, Identifier, i + 1, true
}

// Tokenize produces the token stream for a SELECT or INSERT statement.
// CREATE TABLE statements are compiled by direct text extraction and never
// pass through here.
func Tokenize(stmt string) []Token {
	lexemes := scan(stmt)
	var out []Token
	i := 0
	for i < len(lexemes) {
		lx := lexemes[i]
		switch lx.kind {
		case lexWord:
			upper := strings.ToUpper(lx.text)

			// Multi-word keywords.
			if (upper == "ORDER" || upper == "GROUP") && upperWord(lexemes, i+1) == "BY" {
				out = append(out, Token{Kind: Keyword, Text: upper + " BY"})
				i += 2
				continue
			}
			if joinPrefixes[upper] && upperWord(lexemes, i+1) == "JOIN" {
				out = append(out, Token{Kind: Keyword, Text: upper + " JOIN"})
				i += 2
				continue
			}

			// WHERE swallows everything up to the next clause keyword.
			if upper == "WHERE" {
				j := i + 1
				var parts []string
				for j < len(lexemes) && !clauseBoundary(lexemes, j) {
					parts = append(parts, lexemes[j].text)
					j++
				}
				out = append(out, Token{Kind: WhereClause, Text: "WHERE " + strings.Join(parts, " ")})
				i = j
				continue
			}

			// VALUES swallows the remaining parenthesized tuples.
			if upper == "VALUES" {
				out = append(out, Token{Kind: Keyword, Text: upper})
				j := i + 1
				var parts []string
				for j < len(lexemes) {
					parts = append(parts, lexemes[j].text)
					j++
				}
				if len(parts) > 0 {
					out = append(out, Token{Kind: ValueList, Text: strings.Join(parts, " ")})
				}
				i = j
				continue
			}

			if keywords[upper] && lx.text != "*" {
				out = append(out, Token{Kind: Keyword, Text: upper})
				i++
				continue
			}

			// Element: identifier, wildcard, integer, or function call,
			// possibly chained into a comma-separated list or followed by a
			// comparison operator.
			text, kind, next, ok := elementAt(lexemes, i)
			if !ok {
				i++
				continue
			}
			i = next

			// A dangling operator with no right-hand side falls through to the
			// plain element emit; the stray op lexeme is then skipped.
			if i+1 < len(lexemes) && lexemes[i].kind == lexOp && comparisonOps[lexemes[i].text] {
				op := lexemes[i].text
				right := lexemes[i+1].text
				i += 2
				out = append(out, Token{
					Kind:  Comparison,
					Text:  text + " " + op + " " + right,
					Parts: []string{text, op, right},
				})
				continue
			}

			if i < len(lexemes) && lexemes[i].kind == lexComma {
				members := []string{text}
				for i < len(lexemes) && lexemes[i].kind == lexComma {
					mText, _, mNext, mOK := elementAt(lexemes, i+1)
					if !mOK {
						break
					}
					members = append(members, mText)
					i = mNext
				}
				out = append(out, Token{
					Kind:  IdentifierList,
					Text:  strings.Join(members, ", "),
					Parts: members,
				})
				continue
			}

			tok := Token{Kind: kind, Text: text}
			if kind == FunctionCall {
				open := strings.Index(text, "(")
				tok.Parts = []string{text[:open], strings.TrimSuffix(text[open+1:], ")")}
			}
			out = append(out, tok)

		case lexGroup:
			out = append(out, Token{Kind: ValueList, Text: lx.text})
			i++

		default:
			// Stray commas, operators, and string literals outside the
			// constructs above carry no structure on their own.
			i++
		}
	}
	return out
}
