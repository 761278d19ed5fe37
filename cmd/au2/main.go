package main

import (
	"os"

	"github.com/mcoot/autoumpire/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
