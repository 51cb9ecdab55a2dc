package models

import "time"

// Portals holds the feature switches for each section of the portal.
type Portals struct {
	QA          bool `json:"qa" firestore:"qa" bson:"qa"`
	Marketplace bool `json:"marketplace" firestore:"marketplace" bson:"marketplace"`
	LostFound   bool `json:"lostfound" firestore:"lostfound" bson:"lostfound"`
	TeamUp      bool `json:"teamup" firestore:"teamup" bson:"teamup"`
}

// DefaultPortals has every section enabled.
func DefaultPortals() Portals {
	return Portals{QA: true, Marketplace: true, LostFound: true, TeamUp: true}
}

// UpdatePortalsRequest is a partial update; nil fields are left unchanged.
type UpdatePortalsRequest struct {
	QA          *bool `json:"qa"`
	Marketplace *bool `json:"marketplace"`
	LostFound   *bool `json:"lostfound"`
	TeamUp      *bool `json:"teamup"`
}

// Apply returns p with the non-nil fields of the request applied.
func (r UpdatePortalsRequest) Apply(p Portals) Portals {
	if r.QA != nil {
		p.QA = *r.QA
	}
	if r.Marketplace != nil {
		p.Marketplace = *r.Marketplace
	}
	if r.LostFound != nil {
		p.LostFound = *r.LostFound
	}
	if r.TeamUp != nil {
		p.TeamUp = *r.TeamUp
	}
	return p
}

// Announcement is a site-wide notice posted by an admin.
type Announcement struct {
	ID        string    `json:"id" firestore:"-" bson:"_id"`
	Text      string    `json:"text" firestore:"text" bson:"text"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt,serverTimestamp" bson:"created_at"`
}

// CreateAnnouncementRequest defines the request body for posting an announcement
type CreateAnnouncementRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}
