// Command seed fills a development store with fake students and posts.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/anonto42/campus-p2p/backend/internal/export"
	"github.com/anonto42/campus-p2p/backend/internal/router"
	"github.com/anonto42/campus-p2p/backend/internal/seed"
	"github.com/anonto42/campus-p2p/backend/pkg/config"
	"github.com/anonto42/campus-p2p/backend/pkg/firebase"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of students to create")
	numPosts := flag.Int("posts", 100, "Number of posts to create")
	maxAnswers := flag.Int("answers", 3, "Maximum answers per question")
	reportPercent := flag.Int("reports", 10, "Percentage of posts to report")
	seedValue := flag.Int64("seed", 0, "Random seed, 0 for a random run")
	flag.Parse()

	cfg := config.Load()
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production environment")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	firebaseApp, err := firebase.InitFirebase(ctx, cfg, firebase.Options{
		Firestore: cfg.DocumentStore == config.DocumentStoreFirestore,
		Storage:   cfg.BlobStore == config.BlobStoreFirebase,
	})
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}
	defer firebaseApp.Close()

	stores, err := router.NewStores(ctx, cfg, db, firebaseApp)
	if err != nil {
		log.Fatalf("Failed to initialize stores: %v", err)
	}
	services := router.NewServices(cfg, stores, export.NewService())

	log.Printf("Target: %d users, %d posts", *numUsers, *numPosts)
	s := seed.New(services.Posts, services.Profiles, seed.Options{
		NumUsers:      *numUsers,
		NumPosts:      *numPosts,
		MaxAnswers:    *maxAnswers,
		ReportPercent: *reportPercent,
		Domain:        cfg.InstitutionDomain,
		Batches:       cfg.Batches,
		Seed:          *seedValue,
	})
	sum, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed after %d posts: %v", sum.Posts, err)
	}
	log.Printf("Done: %d users, %d posts, %d answers (%d resolved), %d reports",
		sum.Users, sum.Posts, sum.Answers, sum.Resolved, sum.Reports)
}
