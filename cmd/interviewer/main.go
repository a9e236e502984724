package main

import "github.com/pilab-dev/shadow-interview/cmd/interviewer/cmd"

func main() {
	cmd.Execute()
}
