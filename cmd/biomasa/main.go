package main

import (
	"log"

	"github.com/Evils19/BioMasa/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		log.Fatal(err)
	}
}
