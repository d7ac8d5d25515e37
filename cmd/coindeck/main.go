package main

import (
	"coindeck/internal/cli"
)

func main() {
	cli.Execute()
}
