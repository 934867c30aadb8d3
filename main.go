package main

import "github.com/bcsdlab/hwpx-report/cmd"

func main() {
	cmd.Execute()
}
