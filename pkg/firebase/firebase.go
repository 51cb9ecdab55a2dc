package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/campus-p2p/backend/internal/observability"
	"github.com/anonto42/campus-p2p/backend/pkg/config"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and its clients
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	Firestore   *firestore.Client
	Bucket      *storage.BucketHandle
	BucketName  string
}

// Options selects which clients to open.
type Options struct {
	Firestore bool
	Storage   bool
}

// InitFirebase initializes the Firebase application and the clients selected by opts
func InitFirebase(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	credentialsPath := cfg.FirebaseCredentialsPath
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	fbConfig := &firebase.Config{
		ProjectID:     cfg.FirebaseProjectID,
		StorageBucket: cfg.StorageBucket,
	}
	firebaseApp, err := firebase.NewApp(ctx, fbConfig, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}
	app := &App{FirebaseApp: firebaseApp, AuthClient: authClient}

	if opts.Firestore {
		app.Firestore, err = firebaseApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting firestore client: %w", err)
		}
	}

	if opts.Storage {
		if cfg.StorageBucket == "" {
			return nil, fmt.Errorf("FIREBASE_STORAGE_BUCKET is required for firebase blob storage")
		}
		storageClient, err := firebaseApp.Storage(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting storage client: %w", err)
		}
		app.Bucket, err = storageClient.DefaultBucket()
		if err != nil {
			return nil, fmt.Errorf("error opening storage bucket: %w", err)
		}
		app.BucketName = cfg.StorageBucket
	}

	observability.GlobalLogger.Info("Firebase app initialized",
		"firestore", opts.Firestore, "storage", opts.Storage)
	return app, nil
}

// Close releases the Firestore client if one was opened.
func (a *App) Close() error {
	if a == nil || a.Firestore == nil {
		return nil
	}
	return a.Firestore.Close()
}
