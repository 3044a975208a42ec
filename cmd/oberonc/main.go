package main

import (
	"os"

	"oberonc/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
