package main

import "github.com/slden26/RenLocalizer-UA/internal/cli"

func main() {
	cli.Execute()
}
