package main

import "github.com/aktsk/ff7-medit/cmd"

func main() {
	cmd.Execute()
}
