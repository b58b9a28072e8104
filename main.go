package main

import (
	_ "time/tzdata"

	"github.com/fieldz/fieldz_backend/cmd"
)

func main() {
	cmd.Execute()
}
