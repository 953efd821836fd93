// Package rate models what a port moves per activation: a DataType (element
// type and its size in bytes) and a Rate, either a fixed sample count or a
// repeating cycle of counts for cyclo-static nodes.
package rate
