package query

import "github.com/apache/arrow-go/v18/arrow"

// ResultKind discriminates the three shapes a successful Result can take.
type ResultKind int

const (
	ResultEmpty ResultKind = iota
	ResultJSON
	ResultTabular
)

func (k ResultKind) String() string {
	switch k {
	case ResultEmpty:
		return "empty"
	case ResultJSON:
		return "json"
	case ResultTabular:
		return "tabular"
	default:
		return "unknown"
	}
}

// Result is the outcome of a regular (non-PUT/GET) statement execution.
type Result struct {
	Kind    ResultKind
	JSON    any
	Batches []arrow.Record
}

// Release drops references to every batch's underlying buffers. Callers
// that receive a ResultTabular must call Release once done with it.
func (r Result) Release() {
	for _, b := range r.Batches {
		b.Release()
	}
}
