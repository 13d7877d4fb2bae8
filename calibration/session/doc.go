// Package session orchestrates the computational part of a calibration run:
// a VAS-70 estimation followed by a VAS-0 (pain threshold) estimation seeded
// from the VAS-70 result, the span check between the two, and the
// psychometric temperature↔VAS scale fitted through both estimates.
//
// Stimulus presentation and response collection stay behind the Responder
// interface; the package itself performs no I/O. SimulatedSubject provides a
// Responder backed by a noisy psychometric model for tests and dry runs.
package session
