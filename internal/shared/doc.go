// Package shared holds helpers used by more than one package. It has no
// domain logic of its own.
//
// testutil provides log capture and fixture helpers for tests.
package shared
