// Package nestingtrace records what nestings and edge detectors do.
//
// A Spy is a nesting.Observer that keeps every propagation pass, so callers
// can see how far a change travelled:
//
//	spy := nestingtrace.NewSpy()
//	n, _ := nesting.NewDeep[*Person, *cell.Cell[string]](person, steps, nesting.WithObserver(spy))
//	spy.Reset()
//	street.SetValue("Main St")
//	fmt.Println(spy.PassCount()) // 0: a leaf change does not walk the chain
//
// A Recorder turns edge detector callbacks into a list of event strings,
// naming inner cells through a Names table:
//
//	names := nestingtrace.NewNames().Add("B1", b1).Add("B2", b2)
//	rec := nestingtrace.NewRecorder[*cell.Cell[string]](names.Of).Attach(detector)
//	detector.Start()
//	fmt.Println(rec.Events()) // [enter:B1 presence:false->true]
package nestingtrace
