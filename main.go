package main

import "github.com/nuts-foundation/nuts-negotiation-service/cmd"

func main() {
	cmd.Execute()
}
