package main

import "pqrsdf-sla/cmd"

func main() {
	cmd.Execute()
}
