package main

import "duty-tracker.com/duty-tracker/cmd"

func main() {
	cmd.Execute()
}
