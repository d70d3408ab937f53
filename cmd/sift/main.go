package main

import (
	"os"

	"github.com/dshills/sift/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
