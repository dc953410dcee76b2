// Package threshold decides whether a reading breaches its metric's bounds.
//
// Evaluation is pure and stateless: the same reading against the same
// thresholds always yields the same result, and every breaching reading
// yields a new event. There is no deduplication or hysteresis.
//
// A breach is strict. With max 28, a value of 28 is fine and 28.01 raises
// a high alert; with min 30, a value of 30 is fine and 29.99 raises a low
// alert.
package threshold
