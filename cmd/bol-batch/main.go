// Command bol-batch extracts every PDF under a directory into one XLSX workbook.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
