package snapshot

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/okian/featured/internal/domain/usage"
)

// FirestoreStore writes the snapshot to <environment>/featured_repositories.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore builds a client bound to ambient credentials. An empty
// projectID lets the client detect the project.
func NewFirestoreStore(ctx context.Context, projectID string, opts ...option.ClientOption) (*FirestoreStore, error) {
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) doc(environment string) *firestore.DocumentRef {
	return s.client.Collection(environment).Doc(usage.DocumentKey)
}

// Put implements Store. Set without merge options replaces the document.
func (s *FirestoreStore) Put(ctx context.Context, environment string, snap usage.Snapshot) error {
	if _, err := s.doc(environment).Set(ctx, normalize(snap)); err != nil {
		return wrap("snapshot.firestore.put", ErrPersist, err)
	}
	return nil
}

// Get implements Store.
func (s *FirestoreStore) Get(ctx context.Context, environment string) (usage.Snapshot, error) {
	const op = "snapshot.firestore.get"
	ds, err := s.doc(environment).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return usage.Snapshot{}, ErrNotFound
	}
	if err != nil {
		return usage.Snapshot{}, wrap(op, ErrRead, err)
	}
	var snap usage.Snapshot
	if err := ds.DataTo(&snap); err != nil {
		return usage.Snapshot{}, wrap(op, ErrRead, err)
	}
	return normalize(snap), nil
}

// Close releases the client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
