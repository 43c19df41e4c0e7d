package main

import "reelhound/cmd"

func main() {
	cmd.Execute()
}
