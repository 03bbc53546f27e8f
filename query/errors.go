package query

import "errors"

// QueryError is the single error kind raised while building or compiling a
// statement. Msg is the bare message; Error adds the package prefix.
type QueryError struct {
	Msg string
}

func (e *QueryError) Error() string { return "query: " + e.Msg }

func queryErr(msg string) error { return &QueryError{Msg: msg} }

// IsQueryError reports whether err (or anything it wraps) is a *QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}

const (
	msgAmountRequired  = "Amount must be specified"
	msgSortFields      = "Required to have at least one field to sort"
	msgSortOrder       = "Order must be ASC or DESC"
	msgLimitNumeric    = "Limit parameter must be numeric"
	msgSkipNumeric     = "Skip parameter must be numeric"
	msgFieldRequired   = "Comparison requires a field"
	msgRootComparison  = "Comparison directive requires a field"
	msgOrShape         = "$or expects a list of objects"
	msgSortShape       = "$sort expects an object"
	msgSelectShape     = "$select expects a list of field names"
	msgUnknownOperator = "Unknown comparison operator"
)
