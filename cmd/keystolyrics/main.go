package main

import "github.com/leafo/keystolyrics/internal/cli"

func main() {
	cli.Execute()
}
