package main

import "github.com/nholloway/viewmill/cmd"

func main() {
	cmd.Execute()
}
