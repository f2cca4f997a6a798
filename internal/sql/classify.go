package sql

import "strings"

// Class identifies which of the three paths (§4.3) a statement takes.
type Class int

const (
	ClassData Class = iota
	ClassCatalogDirective
	ClassConstant
)

var constantFunctions = map[string]bool{
	"CURRENT_VERSION":   true,
	"CURRENT_TIMESTAMP": true,
	"CURRENT_ACCOUNT":   true,
	"CURRENT_ROLE":      true,
	"CURRENT_WAREHOUSE": true,
	"CURRENT_DATABASE":  true,
	"CURRENT_SCHEMA":    true,
}

var catalogDirectiveVerbs = map[string]bool{
	"CREATE": true, "DROP": true, "ALTER": true, "UNDROP": true,
	"USE": true, "SHOW": true, "DESCRIBE": true, "DESC": true,
	"TRUNCATE": true,
}

// Classify inspects the leading keyword(s) of a statement and reports its
// class and (for constant statements) the pseudo-function name.
func Classify(tokens []Token) (class Class, constantFn string) {
	sig := significant(tokens)
	if len(sig) == 0 {
		return ClassData, ""
	}

	head := upperText(sig[0])

	if head == "SELECT" && len(sig) >= 5 {
		// SELECT <FN> ( ) [EOF] with no other meaningful tokens is a
		// short-circuited constant/metadata statement.
		fn := upperText(sig[1])
		if constantFunctions[fn] && sig[2].Kind == TokenPunct && sig[2].Text == "(" {
			// find matching close-paren and ensure nothing follows but EOF/semicolon
			idx := 3
			depth := 1
			for idx < len(sig) && depth > 0 {
				if sig[idx].Kind == TokenPunct && sig[idx].Text == "(" {
					depth++
				} else if sig[idx].Kind == TokenPunct && sig[idx].Text == ")" {
					depth--
				}
				idx++
			}
			rest := sig[idx:]
			if onlyTrailingSemicolonOrEOF(rest) {
				return ClassConstant, fn
			}
		}
	}

	if catalogDirectiveVerbs[head] {
		return ClassCatalogDirective, ""
	}

	return ClassData, ""
}

func onlyTrailingSemicolonOrEOF(tokens []Token) bool {
	for _, tok := range tokens {
		if tok.Kind == TokenEOF {
			return true
		}
		if tok.Kind == TokenPunct && tok.Text == ";" {
			continue
		}
		return false
	}
	return true
}

// EvaluateConstant returns the literal value for a constant/metadata
// pseudo-function, given session context. Used by the executor once
// Classify has identified a ClassConstant statement.
func EvaluateConstant(fn string, ctx ConstantContext) string {
	switch fn {
	case "CURRENT_VERSION":
		return ctx.Version
	case "CURRENT_ACCOUNT":
		return ctx.Account
	case "CURRENT_ROLE":
		return ctx.Role
	case "CURRENT_WAREHOUSE":
		return ctx.Warehouse
	case "CURRENT_DATABASE":
		return ctx.Database
	case "CURRENT_SCHEMA":
		return ctx.Schema
	case "CURRENT_TIMESTAMP":
		return ctx.Timestamp
	default:
		return ""
	}
}

// ConstantContext supplies the session-derived values constant/metadata
// pseudo-functions resolve to.
type ConstantContext struct {
	Version   string
	Account   string
	Role      string
	Warehouse string
	Database  string
	Schema    string
	Timestamp string
}

// strippedUpper is a small helper used by directive parsing to compare a
// token's text case-insensitively without allocating through upperText
// for non-identifier kinds.
func strippedUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
