package main

import "github.com/kamusis/gfr/cmd"

func main() {
	cmd.Execute()
}
