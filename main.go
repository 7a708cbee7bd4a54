package main

import "github.com/StinkyLord/cpp-depfinder/cmd"

func main() {
	cmd.Execute()
}
