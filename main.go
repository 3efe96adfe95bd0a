package main

import "github.com/frahmantamala/performance-tracker/cmd"

func main() {
	cmd.Execute()
}
