package messages

import (
	"context"
	"time"

	"github.com/google/uuid"

	"chatdb/pkg/models"
)

// History entries are synthetic, system-authored messages recording an
// audit-trail event. They are plain inserts; nothing updates them in place.

func newHistoryEntry(t, roomID string, user models.UserSnapshot) models.Message {
	groupable := false
	return models.Message{
		ID:        uuid.NewString(),
		Type:      t,
		RoomID:    roomID,
		Text:      "",
		Timestamp: time.Now().UTC(),
		Groupable: &groupable,
		User: models.UserSnapshot{
			ID:       user.ID,
			Username: user.Username,
			Name:     user.Name,
		},
	}
}

// CreateSLAHistory records an SLA assignment change on a room. A nil sla
// means the assignment was cleared. Returns the inserted message id.
func (r *Repo) CreateSLAHistory(ctx context.Context, roomID string, user models.UserSnapshot, sla *models.SLAInfo) (string, error) {
	m := newHistoryEntry(models.TypeSLAChangeHistory, roomID, user)
	m.SLAData = &models.SLAChange{
		DefinedBy: models.DefinedBy{ID: user.ID, Username: user.Username},
		SLA:       sla,
	}
	if _, err := r.InsertOne(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}

// CreatePriorityHistory records a priority assignment change on a room. A
// nil priority means the assignment was cleared. Returns the inserted
// message id.
func (r *Repo) CreatePriorityHistory(ctx context.Context, roomID string, user models.UserSnapshot, priority *models.PriorityInfo) (string, error) {
	m := newHistoryEntry(models.TypePriorityChangeHistory, roomID, user)
	m.PriorityData = &models.PriorityChange{
		DefinedBy: models.DefinedBy{ID: user.ID, Username: user.Username},
		Priority:  priority,
	}
	if _, err := r.InsertOne(ctx, m); err != nil {
		return "", err
	}
	return m.ID, nil
}
