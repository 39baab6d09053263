package main

import "github.com/phototrack/phototrack/cmd"

func main() {
	cmd.Execute()
}
