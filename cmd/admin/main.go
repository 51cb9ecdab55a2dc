// Package main manages the admin custom claim on Firebase Auth users.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/campus-p2p/backend/internal/middleware"
	"github.com/anonto42/campus-p2p/backend/pkg/config"
	"github.com/anonto42/campus-p2p/backend/pkg/firebase"
	"google.golang.org/api/iterator"
)

type claimsClient interface {
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin sync            - Grant ADMIN_EMAILS, revoke everyone else")
		fmt.Println("  go run ./cmd/admin grant <email>   - Grant the admin claim")
		fmt.Println("  go run ./cmd/admin revoke <email>  - Revoke the admin claim")
		fmt.Println("  go run ./cmd/admin list            - List admins")
		os.Exit(1)
	}

	cfg := config.Load()
	ctx := context.Background()
	app, err := firebase.InitFirebase(ctx, cfg, firebase.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}
	client := app.AuthClient

	switch command := os.Args[1]; command {
	case "sync":
		admins, err := listAdmins(ctx, client)
		if err != nil {
			log.Fatalf("Failed to list users: %v", err)
		}
		grant, revoke := planSync(admins, cfg.AdminEmails)
		for _, email := range grant {
			mustSet(ctx, client, email, true)
		}
		for _, email := range revoke {
			mustSet(ctx, client, email, false)
		}
		fmt.Printf("Sync complete: %d granted, %d revoked\n", len(grant), len(revoke))

	case "grant", "revoke":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <email>\n", command)
			os.Exit(1)
		}
		mustSet(ctx, client, os.Args[2], command == "grant")

	case "list":
		admins, err := listAdmins(ctx, client)
		if err != nil {
			log.Fatalf("Failed to list users: %v", err)
		}
		if len(admins) == 0 {
			fmt.Println("No admins found")
			return
		}
		for _, email := range admins {
			fmt.Println(email)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func mustSet(ctx context.Context, client claimsClient, email string, admin bool) {
	changed, err := setAdmin(ctx, client, email, admin)
	if err != nil {
		if auth.IsUserNotFound(err) {
			fmt.Printf("User %s not found\n", email)
			return
		}
		log.Fatalf("Failed to update %s: %v", email, err)
	}
	if !changed {
		fmt.Printf("%s already up to date\n", email)
		return
	}
	if admin {
		fmt.Printf("Granted admin to %s\n", email)
	} else {
		fmt.Printf("Revoked admin from %s\n", email)
	}
}

// setAdmin sets or clears the admin claim, keeping any other custom claims.
func setAdmin(ctx context.Context, client claimsClient, email string, admin bool) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, errors.New("email is required")
	}
	user, err := client.GetUserByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	claims := make(map[string]interface{}, len(user.CustomClaims)+1)
	for k, v := range user.CustomClaims {
		claims[k] = v
	}
	current, _ := claims[middleware.AdminClaim].(bool)
	if current == admin {
		return false, nil
	}
	if admin {
		claims[middleware.AdminClaim] = true
	} else {
		delete(claims, middleware.AdminClaim)
	}
	return true, client.SetCustomUserClaims(ctx, user.UID, claims)
}

func listAdmins(ctx context.Context, client *auth.Client) ([]string, error) {
	var admins []string
	it := client.Users(ctx, "")
	for {
		user, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		if isAdmin, _ := user.CustomClaims[middleware.AdminClaim].(bool); isAdmin {
			admins = append(admins, strings.ToLower(user.Email))
		}
	}
	sort.Strings(admins)
	return admins, nil
}

// planSync returns the emails to grant and to revoke so that exactly the
// allow-list holds the claim.
func planSync(current, allowed []string) (grant, revoke []string) {
	want := make(map[string]bool, len(allowed))
	for _, email := range allowed {
		if email = strings.ToLower(strings.TrimSpace(email)); email != "" {
			want[email] = true
		}
	}
	have := make(map[string]bool, len(current))
	for _, email := range current {
		have[email] = true
		if !want[email] {
			revoke = append(revoke, email)
		}
	}
	for email := range want {
		if !have[email] {
			grant = append(grant, email)
		}
	}
	sort.Strings(grant)
	sort.Strings(revoke)
	return grant, revoke
}
