package main

import "snowshift/cmd"

func main() {
	cmd.Execute()
}
