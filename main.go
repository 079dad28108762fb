//go:build !test

package main

import (
	"log"

	"github.com/dosvm86/supervisor/flag"
)

func main() {
	if err := flag.Parse(); err != nil {
		log.Fatal(err)
	}
}
