package main

import "courtcal/internal/cli"

func main() {
	cli.Execute()
}
