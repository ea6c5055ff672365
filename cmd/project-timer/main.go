package main

import "hobbytrack/project-timer/internal/cli"

func main() {
	cli.Execute()
}
