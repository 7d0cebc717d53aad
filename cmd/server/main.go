package main

import (
	"log"

	"logitrack-backend/internal/app"
	"logitrack-backend/internal/config"
	"logitrack-backend/internal/database"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()
	database.Init(cfg)

	srv := app.New(cfg)

	log.Println("Server listening on port", cfg.HTTPPort)
	if err := srv.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
