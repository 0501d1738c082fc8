package brokerimport

import (
	"fmt"
	"strings"

	"github.com/etnz/brokerimport/date"
)

// The error taxonomy separates four situations:
//   - structural parsing errors: the input file does not have the expected
//     shape, fatal for the run.
//   - lookup failures: a required award price cannot be resolved, fatal.
//   - consistency violations: a data-format assumption of the pairing
//     algorithms does not hold, fatal, and a defect rather than user input.
//   - missing optional inputs are not errors at all: they are reported on the
//     Diagnostics sink and the source contributes zero transactions.

// ParsingError reports a structural violation in a source file.
type ParsingError struct {
	Source  string // file the error was found in
	Context string // row or line context, for the user to locate the problem
	Message string
}

func (e *ParsingError) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("parsing %s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("parsing %s (%s): %s", e.Source, e.Context, e.Message)
}

// UnexpectedColumnCountError reports a row with the wrong number of columns.
type UnexpectedColumnCountError struct {
	Source string
	Row    []string
	Want   int
}

func (e *UnexpectedColumnCountError) Error() string {
	return fmt.Sprintf("parsing %s: expected %d columns, got %d in row %q",
		e.Source, e.Want, len(e.Row), strings.Join(e.Row, ","))
}

// UnexpectedRowCountError reports an award file whose physical rows cannot be
// paired up because the total count is odd.
type UnexpectedRowCountError struct {
	Source string
	Count  int
}

func (e *UnexpectedRowCountError) Error() string {
	return fmt.Sprintf("parsing %s: awards rows must come in pairs, got %d rows", e.Source, e.Count)
}

// PriceNotFoundError reports that no award price could be resolved for a
// symbol within the backward search window.
type PriceNotFoundError struct {
	Symbol string
	Day    date.Date
}

func (e *PriceNotFoundError) Error() string {
	return fmt.Sprintf("award price not found for symbol %s on %s (searched %d days back)",
		e.Symbol, e.Day, awardSearchWindow)
}

// ConsistencyError reports a violated assumption of the pairing algorithms.
// It indicates a defect in the data format or in this package, not something
// the user can fix in their input.
type ConsistencyError struct {
	Source  string
	Message string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("inconsistent data in %s: %s", e.Source, e.Message)
}
