package main

import "rxdesk/m/cmd"

func main() {
	cmd.Execute()
}
