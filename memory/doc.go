// Package memory plans the physical buffers behind a schedule's FIFOs.
//
// FIFOs used as plain arrays may share storage when their live intervals
// never overlap. Plan builds an interference graph over those FIFOs, colors
// it with a pluggable greedy strategy, and maps colors to buffers, honoring
// custom buffer constraints. A final pass marks duplicate-node outputs that
// need no runtime copy because they already alias the input or a sibling.
package memory
