package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/eduverse/tutorhub-server-go/internal/features/identity"
	"github.com/eduverse/tutorhub-server-go/internal/store"
	"github.com/eduverse/tutorhub-server-go/pkg/config"
	"github.com/eduverse/tutorhub-server-go/pkg/database"
	"github.com/eduverse/tutorhub-server-go/pkg/logger"
	"github.com/eduverse/tutorhub-server-go/pkg/types"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx := context.Background()

	backend, err := newBackend(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to open storage backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	st := store.New(backend, appLogger)
	defer st.Close()

	appLogger.Info("Storage backend ready", slog.String("driver", cfg.Storage.Driver))

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)

	fmt.Print("Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)

	fmt.Print("Password (min 8 chars): ")
	password, _ := reader.ReadString('\n')
	password = strings.TrimSpace(password)

	if name == "" || email == "" || len(password) < 8 {
		fmt.Println("Error: name, email, and password (min 8 chars) are required")
		os.Exit(1)
	}

	hash, err := identity.HashPassword(password)
	if err != nil {
		appLogger.Error("Failed to hash password", slog.String("error", err.Error()))
		os.Exit(1)
	}

	acct, err := identity.CreateOrUpdateAccount(ctx, st, identity.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         types.RoleAdmin,
		Verified:     true,
	})
	if err != nil {
		appLogger.Error("Failed to create admin account", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Println("\nAdmin account ready!")
	fmt.Printf("   ID: %s\n", acct.ID)
	fmt.Printf("   Email: %s\n", acct.Email)
	fmt.Printf("   Role: %s\n", acct.Role)
}

func newBackend(ctx context.Context, cfg *config.Config, appLogger *slog.Logger) (store.Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := database.Connect(ctx, cfg.Database, appLogger)
		if err != nil {
			return nil, err
		}
		return store.NewPostgresBackend(db)

	case config.DriverRedis:
		return store.NewRedisBackend(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	case config.DriverMemory:
		return store.NewMemoryBackend(), nil

	default:
		return store.NewFileBackend(cfg.Storage.DataDir)
	}
}
