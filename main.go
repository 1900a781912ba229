package main

import "github.com/marsh-hen/refix/cmd"

func main() {
	cmd.Execute()
}
