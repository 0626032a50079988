// Command backplan schedules tasks backwards from a deadline.
package main

import "github.com/twiced-technology-gmbh/backplan/cmd"

func main() {
	cmd.Execute()
}
