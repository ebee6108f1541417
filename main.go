package main

import "distserve/internal/cli"

func main() {
	cli.Execute()
}
