package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/franciscosanchezn/gin-chat-auth/internal/auth"
	"github.com/franciscosanchezn/gin-chat-auth/internal/database"
	"github.com/franciscosanchezn/gin-chat-auth/internal/models"
	"github.com/franciscosanchezn/gin-chat-auth/internal/services"
)

func main() {
	// Parse command line flags
	role := flag.String("role", models.RoleAdmin, "User role (admin or user)")
	password := flag.String("password", "dev-password-123", "Password for the development user")
	dbPath := flag.String("db", "chat.sqlite", "SQLite database file")
	clientID := flag.String("client-id", "chat-cli", "Public client id used by the chat CLI")
	flag.Parse()

	if *role != models.RoleAdmin && *role != models.RoleUser {
		log.Fatalf("Unknown role %q (admin or user)", *role)
	}

	db, err := database.InitDatabase(database.DatabaseConfig{Driver: "sqlite", Path: *dbPath})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Get or create user with specified role
	userService := services.NewUserService(db)
	email := fmt.Sprintf("%s@chat.local", *role)
	user, err := userService.GetUserByEmail(email)
	if err != nil {
		user = &models.User{Email: email, Name: fmt.Sprintf("Development %s", *role), Role: *role}
		if err := userService.CreateUser(user, *password); err != nil && !errors.Is(err, services.ErrUserAlreadyExists) {
			log.Fatal("Failed to create user:", err)
		}
		fmt.Printf("Created new user: %s (ID: %d, Role: %s)\n", user.Email, user.ID, user.Role)
	} else {
		fmt.Printf("Found existing user: %s (ID: %d, Role: %s)\n", user.Email, user.ID, user.Role)
	}

	// The CLI is a public client: it only needs the device grant
	client, err := services.NewClientService(db).EnsurePublicClient(*clientID, "Chat CLI", string(auth.DeviceCodeGrant))
	if err != nil {
		log.Fatal("Failed to create client:", err)
	}

	fmt.Printf("✓ Development client ready: %s (grant types: %s)\n", client.ID, client.GrantTypes)
	fmt.Println("\nLog in from the browser side with:")
	fmt.Printf("curl -X POST http://localhost:8080/api/v1/auth/login \\\n")
	fmt.Printf("  -H 'Content-Type: application/json' \\\n")
	fmt.Printf("  -d '{\"email\": \"%s\", \"password\": \"%s\"}'\n", email, *password)
	fmt.Println("\nThen run `chat login` and approve the code it prints.")
}
