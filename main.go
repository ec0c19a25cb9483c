package main

import "github.com/minekit/minekit/cmd"

func main() {
	cmd.Execute()
}
