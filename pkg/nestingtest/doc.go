// Package nestingtest provides assertions for nestings and edge detectors.
// Pair them with the recorders of package nestingtrace:
//
//	rec := nestingtrace.NewRecorder[*cell.Cell[string]](names.Of).Attach(detector)
//	detector.Start()
//	nestingtest.ExpectEvents(t, rec, "enter:B1", "presence:false->true")
package nestingtest
