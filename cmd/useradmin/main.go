// Command useradmin creates an account directly in the database.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/todokeeper/internal/server/services"
	"github.com/dmitrijs2005/todokeeper/internal/useradmin"
)

func main() {

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migrations error: %v", err)
	}

	tokens := auth.NewTokenIssuer([]byte(cfg.SecretKey), cfg.TokenIssuer, cfg.TokenAudience, cfg.AccessTokenValidityDuration)
	us := services.NewUserService(db, rm, cfg, tokens)

	if _, err := useradmin.CreateUser(ctx, us, bufio.NewReader(os.Stdin), os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}

}
