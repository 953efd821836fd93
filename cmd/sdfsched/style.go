package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/kbukum/dataflow/errors"
	"github.com/kbukum/dataflow/util"
)

// Sprint color functions for building styled strings.
var (
	bold        = color.New(color.Bold).SprintFunc()
	dim         = color.New(color.Faint).SprintFunc()
	cyan        = color.New(color.FgCyan).SprintFunc()
	green       = color.New(color.FgGreen).SprintFunc()
	yellow      = color.New(color.FgYellow).SprintFunc()
	boldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	boldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	boldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
)

func disableColor() {
	color.NoColor = true
}

// printError writes err with its code and details when it is an AppError.
func printError(w io.Writer, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		fmt.Fprintf(w, "%s %v\n", boldRed("error:"), err)
		return
	}
	fmt.Fprintf(w, "%s %s %s\n", boldRed("error:"), yellow(appErr.Code), appErr.Message)
	for _, k := range util.SortedKeys(appErr.Details) {
		fmt.Fprintf(w, "  %s %v\n", dim(k+":"), appErr.Details[k])
	}
	if appErr.Cause != nil {
		fmt.Fprintf(w, "  %s %v\n", dim("cause:"), appErr.Cause)
	}
}
