// Package errors provides the closed error taxonomy for the bridge and the
// translation table that maps foreign driver exceptions into it.
//
// Every foreign-side failure is intercepted inside the component that made
// the foreign call and re-raised through Translate; callers only ever see
// *Error (or *BatchError) values. Dispatch happens on Kind and Code:
//
//	if errors.Is(err, jerrors.ErrRuntimeNotReady) { ... }
//	if errors.Is(err, &jerrors.Error{Kind: jerrors.KindIntegrity}) { ... }
//
// Translation is a lookup table over (exception class prefix, SQLSTATE
// class, vendor code). Supporting a new vendor means adding rows, not
// types. Unknown foreign exceptions map to KindDatabase rather than
// propagating raw.
package errors
