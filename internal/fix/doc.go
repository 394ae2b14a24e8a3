// Package fix synthesizes and applies candidate remediations for a
// classified command failure.
//
// A Fix pairs a human description and confidence score with a tagged Action
// value (kind plus structured parameters). Actions are inert data until the
// Applier interprets them, so fixes can be listed, logged and tested without
// triggering side effects.
//
// Synthesis is total: it never fails for a well-formed diagnosis, and an
// empty result means "no automatic fix available", not an error. Categories
// without a deterministic rule are delegated to the inference gateway.
package fix
