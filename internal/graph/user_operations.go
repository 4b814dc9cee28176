package graph

import (
	"context"

	apperrors "hays/backend/pkg/errors"
)

// ============================================================================
// User Operations
// ============================================================================

// EnsureUser idempotently upserts the shadow record for an identity-provider
// user. Defaults are applied on first creation only; an existing user's
// fields are never overwritten.
func (r *Repository) EnsureUser(ctx context.Context, id, username, profilePic string) error {
	query := `
		MERGE (u:User {id: $id})
		ON CREATE SET u.username = COALESCE($username, $id),
		              u.profile_pic = COALESCE($profilePic, '')
		RETURN u.id as id
	`

	_, err := r.store.Run(ctx, query, map[string]any{
		"id":         id,
		"username":   nullable(username),
		"profilePic": nullable(profilePic),
	})
	return err
}

// UserExists reports whether a user node with the given id exists.
func (r *Repository) UserExists(ctx context.Context, id string) (bool, error) {
	query := `MATCH (u:User {id: $id}) RETURN u.id as id`

	record, err := r.store.RunSingle(ctx, query, map[string]any{"id": id})
	if err != nil {
		return false, err
	}
	return record != nil, nil
}

// UserPublic returns a user's public profile fields.
func (r *Repository) UserPublic(ctx context.Context, id string) (*User, error) {
	query := `
		MATCH (u:User {id: $id})
		RETURN u.id as id,
		       u.username as username,
		       COALESCE(u.profile_pic, u.avatar_url, '') as profile_pic
	`

	record, err := r.store.RunSingle(ctx, query, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.Newf(apperrors.KindNotFound, "user not found: %s", id)
	}
	return &User{
		ID:         getStringFromRecord(record, "id"),
		Username:   getStringFromRecord(record, "username"),
		ProfilePic: getStringFromRecord(record, "profile_pic"),
	}, nil
}

// nullable maps an empty string to nil so Cypher COALESCE can fall through
// to its defaults.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
