package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/sproutplan/sproutplan-api/internal/database"
	"github.com/sproutplan/sproutplan-api/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// NewUserCmd creates the user management command
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
		Long:  "Create user accounts directly, bypassing the registration endpoint.",
	}
	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var username string
	var password string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			username = strings.TrimSpace(username)
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			if len(password) < 6 {
				return fmt.Errorf("--password must be at least 6 characters")
			}

			db, cleanup, err := openDB()
			if err != nil {
				return err
			}
			defer cleanup()

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}

			user := &models.User{
				ID:           uuid.New(),
				Username:     username,
				PasswordHash: string(hash),
				CreatedAt:    time.Now().UTC(),
			}

			userRepo := database.NewUserRepository(db)
			if err := userRepo.Create(context.Background(), user); err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Printf("Created user %s (%s)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required, min 6 characters)")
	return cmd
}
