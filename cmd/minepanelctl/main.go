package main

import "minepanel/internal/cli"

func main() {
	cli.Execute()
}
