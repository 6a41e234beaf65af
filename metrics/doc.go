// Package metrics exports decode failures as metrics. Both reporters implement miele.Reporter and can be combined with
// a miele.MultiReporter alongside miele.LogReporter.
package metrics
