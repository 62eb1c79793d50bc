package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/clientpulse/clientpulse/internal/adapter/persistence"
	"github.com/clientpulse/clientpulse/internal/config"
	"github.com/clientpulse/clientpulse/internal/domain"
	"github.com/clientpulse/clientpulse/internal/service/password"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if len(os.Args) < 3 {
		log.Fatalf("usage: %s <username> <password>", os.Args[0])
	}
	username := os.Args[1]
	plaintext := os.Args[2]

	db, err := sql.Open("postgres", cfg.GetDatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	passwordService := password.NewBcryptPasswordService(0)
	hash, err := passwordService.HashPassword(plaintext)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	operatorRepo := persistence.NewPostgresOperatorRepository(db)
	operator := domain.NewOperator(username, hash)
	if err := operatorRepo.Create(ctx, operator); err != nil {
		log.Fatalf("Failed to create operator: %v", err)
	}

	fmt.Printf("Operator %s created (%s)\n", operator.Username, operator.ID)
}
