package main

import "bootconda/internal/cli"

func main() {
	cli.Execute()
}
