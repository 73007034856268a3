package main

import (
	"os"

	"github.com/slocwatch/slocwatch/src/cli/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
