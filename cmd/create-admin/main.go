package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/stemsi/submission-portal/internal/config"
	"github.com/stemsi/submission-portal/internal/database"
	"github.com/stemsi/submission-portal/internal/identity"
	"github.com/stemsi/submission-portal/internal/logger"
	"github.com/stemsi/submission-portal/internal/model"
	"github.com/stemsi/submission-portal/internal/repository"
	"github.com/stemsi/submission-portal/internal/service"
	"golang.org/x/term"
)

const minPasswordLength = 6

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	adminRepo := repository.NewAdminRepository(pool)
	authService := service.NewAuthService(cfg, adminRepo)

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("=== Create or Reset Portal Admin ===")

	name := prompt(reader, "Name: ")
	email := identity.NormalizeEmail(prompt(reader, "Email: "))
	if email == "" {
		fmt.Fprintln(os.Stderr, "Error: email is required")
		os.Exit(1)
	}

	password, err := readPassword("Password: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil || confirm != password {
		fmt.Fprintln(os.Stderr, "Error: passwords do not match")
		os.Exit(1)
	}

	hash, err := authService.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	admin := model.NewAdmin(email, name, hash)
	err = adminRepo.Create(ctx, admin)
	switch {
	case err == nil:
		fmt.Printf("Admin %q (%s) created with ID %d\n", admin.Name, admin.Email, admin.ID)
	case errors.Is(err, repository.ErrDuplicate):
		// An existing admin only gets a new password.
		if err := adminRepo.UpdatePassword(ctx, email, hash); err != nil {
			log.Fatal().Err(err).Msg("Failed to reset admin password")
		}
		fmt.Printf("Admin %s already existed; password reset\n", email)
	default:
		log.Fatal().Err(err).Msg("Failed to create admin")
	}
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func readPassword(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if len(raw) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return string(raw), nil
}
