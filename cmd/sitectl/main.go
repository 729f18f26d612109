package main

import "buildops/internal/cli"

func main() {
	cli.Execute()
}
