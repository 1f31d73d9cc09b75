package main

import (
	"treesafe/cmd"
)

func main() {
	cmd.Execute()
}
