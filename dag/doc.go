// Package dag layers named nodes in dependency order.
//
// BuildLevels peels sources first and BuildReverseLevels peels sinks first;
// both keep the caller's node order inside a level so that results are
// reproducible. Weak edges are ignored for layering, which lets a caller
// break feedback loops. Components counts connected components.
package dag
