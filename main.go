package main

import (
	"os"

	"github.com/taskvault/taskvault/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
