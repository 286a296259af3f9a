package main

import "github.com/brunseba/vra-cli/internal/cli"

func main() {
	cli.Execute()
}
