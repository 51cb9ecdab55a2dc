package repositories

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/anonto42/campus-p2p/backend/internal/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *FirestoreStore) portalsDoc() *firestore.DocumentRef {
	return s.client.Collection(settingsCollection).Doc(portalsDocument)
}

// GetPortals returns the portal switches, initializing them on first read.
func (s *FirestoreStore) GetPortals(ctx context.Context) (models.Portals, error) {
	snap, err := s.portalsDoc().Get(ctx)
	if status.Code(err) == codes.NotFound {
		defaults := models.DefaultPortals()
		if _, err := s.portalsDoc().Set(ctx, defaults); err != nil {
			return defaults, translate("initialize portals", "Settings", portalsDocument, err)
		}
		return defaults, nil
	}
	if err != nil {
		return models.Portals{}, translate("load portals", "Settings", portalsDocument, err)
	}
	var p models.Portals
	if err := snap.DataTo(&p); err != nil {
		return models.Portals{}, models.NewPersistenceError("decode portals", err)
	}
	return p, nil
}

// SavePortals replaces the portal switches.
func (s *FirestoreStore) SavePortals(ctx context.Context, portals models.Portals) error {
	_, err := s.portalsDoc().Set(ctx, portals)
	return translate("save portals", "Settings", portalsDocument, err)
}

// LatestAnnouncement returns the newest announcement.
func (s *FirestoreStore) LatestAnnouncement(ctx context.Context) (*models.Announcement, error) {
	docs, err := s.client.Collection(announcementsCollection).
		OrderBy("createdAt", firestore.Desc).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return nil, translate("load announcement", "Announcement", "", err)
	}
	if len(docs) == 0 {
		return nil, models.NewNotFoundError("Announcement", "latest")
	}
	var a models.Announcement
	if err := docs[0].DataTo(&a); err != nil {
		return nil, models.NewPersistenceError("decode announcement", err)
	}
	a.ID = docs[0].Ref.ID
	return &a, nil
}

// CreateAnnouncement stores a new announcement.
func (s *FirestoreStore) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	ref := s.client.Collection(announcementsCollection).NewDoc()
	wr, err := ref.Create(ctx, a)
	if err != nil {
		return translate("create announcement", "Announcement", "", err)
	}
	a.ID = ref.ID
	a.CreatedAt = wr.UpdateTime
	return nil
}
