package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"usersvc/internal/auth"
	"usersvc/internal/config"
	"usersvc/internal/db"
	apperrors "usersvc/internal/errors"
	"usersvc/internal/model"
	"usersvc/internal/repository"
	"usersvc/internal/service"
)

// SeedUserData represents one user in a seed file.
type SeedUserData struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
	BirthDay string `json:"birthDay"`
}

var (
	seedFile string
	seedURL  string
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed users into the database",
	Long: `Creates users from a JSON array of {username, name, password, birthDay}.
Users whose username or name already exist are skipped.

	seed --file users.json
	seed --url https://example.com/users.json
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (seedFile == "") == (seedURL == "") {
			return errors.New("exactly one of --file or --url is required")
		}

		var (
			users []SeedUserData
			err   error
		)
		if seedFile != "" {
			log.Printf("Reading users from: %s", seedFile)
			users, err = readUsersFromFile(seedFile)
		} else {
			log.Printf("Fetching users from: %s", seedURL)
			users, err = fetchUsersFromAPI(cmd.Context(), seedURL)
		}
		if err != nil {
			return err
		}
		log.Printf("Loaded %d users", len(users))

		cfg := config.Load()
		gormDB, err := db.Open(cfg)
		if err != nil {
			return err
		}
		if err := db.Migrate(gormDB, false); err != nil {
			return err
		}
		log.Println("Database migrations completed")

		hasher, err := auth.NewPasswordHasher(cfg.PasswordHasher)
		if err != nil {
			return err
		}
		svc := service.NewUserService(
			repository.NewUserRepository(gormDB),
			auth.NewJWTService(cfg.JWTSecret),
			hasher,
			auth.NewTokenStore(nil),
			nil,
		)

		created, skipped, err := seedUsers(cmd.Context(), svc, users)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seed completed: %d created, %d skipped\n", created, skipped)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&seedFile, "file", "", "path to a JSON seed file")
	rootCmd.Flags().StringVar(&seedURL, "url", "", "URL serving a JSON seed file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

// seedUsers creates each user through the service, skipping invalid entries and duplicates.
func seedUsers(ctx context.Context, svc service.UserService, users []SeedUserData) (created, skipped int, err error) {
	for _, item := range users {
		if item.Username == "" || item.Name == "" || item.Password == "" {
			log.Printf("Skipping incomplete user entry %q", item.Username)
			skipped++
			continue
		}

		_, err := svc.CreateUser(ctx, &model.User{
			Username: item.Username,
			Name:     item.Name,
			Password: item.Password,
			BirthDay: item.BirthDay,
		})
		var dup *apperrors.DuplicateFieldError
		switch {
		case errors.As(err, &dup):
			log.Printf("Skipping %s: %v taken", item.Username, dup.Fields)
			skipped++
		case err != nil:
			return created, skipped, fmt.Errorf("create user %s: %w", item.Username, err)
		default:
			created++
		}
	}
	return created, skipped, nil
}

func readUsersFromFile(path string) ([]SeedUserData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return decodeUsers(f)
}

func fetchUsersFromAPI(ctx context.Context, url string) ([]SeedUserData, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("seed source returned status %d", resp.StatusCode)
	}
	return decodeUsers(resp.Body)
}

func decodeUsers(r io.Reader) ([]SeedUserData, error) {
	var users []SeedUserData
	if err := json.NewDecoder(r).Decode(&users); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return users, nil
}
