package main

import "github.com/example/studyapp/cmd"

func main() {
	cmd.Execute()
}
