package main

import "thoughtnet/cmd"

func main() {
	cmd.Execute()
}
