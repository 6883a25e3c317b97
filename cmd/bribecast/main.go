package main

import "bribecast/internal/cli"

func main() {
	cli.Execute()
}
