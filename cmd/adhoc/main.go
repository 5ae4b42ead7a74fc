// Command adhoc inspects API definitions: it exports JSON Schema, checks
// payloads against declared types and lists names per API version.
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		if !errors.Is(err, errIssues) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
