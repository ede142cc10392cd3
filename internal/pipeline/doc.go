// Package pipeline wires ingestion, aggregation, modelling and reporting
// into the two batch runs: the campus energy analysis and the weather
// analysis. Each run is a sequence of Stages executed by a Runner, which
// opens a span per stage and stops at the first failure.
package pipeline
