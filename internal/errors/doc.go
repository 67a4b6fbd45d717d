// Package errors provides structured, coded errors for the nesting engine
// and its tooling.
//
// Each error has a code (e.g. "N001") registered with a category, a short
// message and a longer detail. Usage errors from pkg/nesting wrap a public
// sentinel, so callers match them with the standard errors.Is while the
// CLI prints the full diagnostic:
//
//	err := errors.New("S003").
//	    WithLocation("scenarios/depth2.yaml", 12, 5).
//	    WithDetail(`record "a2" names cell "B9", which is not declared`).
//	    WithSuggestion("Declare the cell under cells: or fix the name")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR S003: Unknown cell reference
//	//
//	//   scenarios/depth2.yaml:12:5
//	//
//	//     10 │ records:
//	//     11 │   a2:
//	//   → 12 │     b: B9
//	//        │     ^
//	//
//	//   record "a2" names cell "B9", which is not declared
//	//
//	//   Hint: Declare the cell under cells: or fix the name
//
// # Code Ranges
//
//   - N001-N099: nesting usage (construction, lifecycle)
//   - S001-S099: scenario loading, validation and expectations
//   - C001-C099: configuration
package errors
