package main

import (
	"log"

	"github.com/inesruizblach/RateFlow/internal/app"
)

func main() {
	app, err := app.NewApp()
	if err != nil {
		log.Fatalf("failed to create application: %v", err)
	}

	app.BuildAPILayer()

	if err := app.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
