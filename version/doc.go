// Package version reports the sdfsched build and the document layout it
// reads and writes.
//
//	go build -ldflags "-X github.com/kbukum/dataflow/version.Version=1.4.0"
package version
