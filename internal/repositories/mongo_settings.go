package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/campus-p2p/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetPortals returns the portal switches, initializing them on first read.
func (s *MongoStore) GetPortals(ctx context.Context) (models.Portals, error) {
	var p models.Portals
	err := s.settings.FindOne(ctx, bson.M{"_id": portalsDocument}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		defaults := models.DefaultPortals()
		return defaults, s.SavePortals(ctx, defaults)
	}
	if err != nil {
		return models.Portals{}, translate("load portals", "Settings", portalsDocument, err)
	}
	return p, nil
}

// SavePortals replaces the portal switches.
func (s *MongoStore) SavePortals(ctx context.Context, portals models.Portals) error {
	_, err := s.settings.ReplaceOne(ctx, bson.M{"_id": portalsDocument}, portals, options.Replace().SetUpsert(true))
	return translate("save portals", "Settings", portalsDocument, err)
}

// LatestAnnouncement returns the newest announcement.
func (s *MongoStore) LatestAnnouncement(ctx context.Context) (*models.Announcement, error) {
	var a models.Announcement
	findOptions := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := s.announcements.FindOne(ctx, bson.D{}, findOptions).Decode(&a); err != nil {
		return nil, translate("load announcement", "Announcement", "latest", err)
	}
	return &a, nil
}

// CreateAnnouncement stores a new announcement.
func (s *MongoStore) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	a.ID = newID()
	a.CreatedAt = s.now()
	_, err := s.announcements.InsertOne(ctx, a)
	return translate("create announcement", "Announcement", a.ID, err)
}
