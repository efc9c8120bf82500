package main

import (
	"SipSound/cmd"
)

func main() {
	// Cobra exits the process on command errors.
	cmd.Execute()
}
