package main

import "powertrack/cmd/powerctl/root"

func main() {
	root.Execute()
}
