// Package util holds small generic helpers shared by the other packages.
package util
