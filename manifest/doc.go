// Package manifest reads and writes dataflow graph documents.
//
// Graphs are described in YAML (the format exported by Encode) or in HCL,
// where variable blocks let rates be parameterized:
//
//	variable "block" { default = 256 }
//
//	node "src" {
//	  kind = "Source"
//	  output "o" {
//	    type    = "float32_t"
//	    samples = [var.block]
//	  }
//	}
//
// Scheduling options use the schedule-options, code-generation-options and
// c-code-generation-options sections and map onto scheduler.Config.
package manifest
