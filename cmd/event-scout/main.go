package main

import "github.com/pfrederiksen/event-scout/internal/cli"

func main() {
	cli.Execute()
}
