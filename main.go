package main

import "github.com/kris-hansen/scribe/cmd"

func main() {
	cmd.Execute()
}
