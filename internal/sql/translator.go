package sql

// StatementTypeID returns the stable numeric code for a statement class,
// per §6's closed table. Unknown classes default to SELECT's code.
func StatementTypeID(d *Directive, isConstant bool) int64 {
	const (
		idSelect   = 4096
		idCreate   = 8192
		idDrop     = 16384
		idInsert   = 32768
		idUpdate   = 65536
		idDelete   = 131072
		idAlter    = 262144
		idTruncate = 524288
		idUse      = 1048576
		idShowDesc = 2097152
	)

	if isConstant || d == nil {
		return idSelect
	}

	switch d.Verb {
	case VerbCreate:
		return idCreate
	case VerbDrop, VerbUndrop:
		return idDrop
	case VerbAlter:
		return idAlter
	case VerbTruncate:
		return idTruncate
	case VerbUse:
		return idUse
	case VerbShow, VerbDescribe:
		return idShowDesc
	default:
		return idSelect
	}
}

// DataStatementTypeID inspects a data statement's leading keyword to pick
// among SELECT/INSERT/UPDATE/DELETE; anything else defaults to SELECT.
func DataStatementTypeID(tokens []Token) int64 {
	const (
		idSelect = 4096
		idInsert = 32768
		idUpdate = 65536
		idDelete = 131072
	)
	sig := significant(tokens)
	if len(sig) == 0 {
		return idSelect
	}
	switch upperText(sig[0]) {
	case "INSERT":
		return idInsert
	case "UPDATE":
		return idUpdate
	case "DELETE":
		return idDelete
	default:
		return idSelect
	}
}

// Result is the outcome of Translate: exactly one of Directive,
// ConstantFn, or Rewritten is populated, matching Class.
type Result struct {
	Class       Class
	Directive   *Directive
	ConstantFn  string
	Rewritten   string
	OriginalSQL string
}

// Translate classifies sqlText and, for data statements, applies the
// dialect rewrite pipeline. It is pure: given the same input and context
// it always produces the same output, and running it twice (feeding the
// rewritten SQL back in as a data statement) is a no-op.
func Translate(sqlText string, ctx RewriteContext) (*Result, error) {
	tokens := Tokenize(sqlText)
	class, constantFn := Classify(tokens)

	res := &Result{Class: class, OriginalSQL: sqlText}

	switch class {
	case ClassCatalogDirective:
		directive, err := ParseDirective(tokens)
		if err != nil {
			return nil, err
		}
		res.Directive = directive
		return res, nil

	case ClassConstant:
		res.ConstantFn = constantFn
		return res, nil

	default:
		res.Rewritten = Rewrite(tokens, ctx)
		return res, nil
	}
}
