package main

import (
	"os"

	"github.com/nob-ogura/document-locator/internal/adapters/driving/cli"
)

func main() {
	os.Exit(cli.Execute())
}
