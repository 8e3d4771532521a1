package drafts

import (
	"context"
	"slices"
	"time"

	"aplite/internal/onboarding/models"
	id "aplite/pkg/domain"
)

// Record is everything persisted for one browser session.
type Record struct {
	SessionID id.SessionID    `json:"session_id,omitempty"`
	Owner     id.UserID       `json:"owner"`
	Drafts    models.Drafts   `json:"drafts"`
	Visited   []models.StepID `json:"visited,omitempty"`
	Device    string          `json:"device,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r Record) Clone() Record {
	out := r
	out.Drafts = r.Drafts.Clone()
	out.Visited = slices.Clone(r.Visited)
	return out
}

// blank keeps only what identifies the namespace's holder.
func (r Record) blank() Record {
	return Record{Owner: r.Owner, Device: r.Device}
}

// Persister is durable storage scoped to a browser-session namespace. Load
// returns sentinel.ErrNotFound when nothing was saved.
type Persister interface {
	Load(ctx context.Context, ns id.Namespace) (Record, error)
	Save(ctx context.Context, ns id.Namespace, rec Record) error
	Delete(ctx context.Context, ns id.Namespace) error
}

// Observer is told about persistence failures, which never fail the caller.
type Observer interface {
	DraftPersistFailed(op string)
}
