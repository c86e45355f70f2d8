package store

import (
	"context"
	"fmt"

	"github.com/shelfscape/backend/internal/models"
)

const communityColumns = `c.id, c.name, c.description, c.owner_id,
	(SELECT COUNT(*) FROM community_members cm WHERE cm.community_id = c.id),
	c.created_at`

// CommunityUpdate carries the optional fields of a partial community
// update.
type CommunityUpdate struct {
	Name        *string
	Description *string
}

// CreateCommunity inserts a community and enrolls the owner as its
// first member in one transaction.
func (s *PostgresStore) CreateCommunity(ctx context.Context, ownerID int64, name, description string) (*models.Community, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("create community: %w", err)
	}
	defer tx.Rollback(ctx)

	var c models.Community
	err = tx.QueryRow(ctx,
		`INSERT INTO communities (name, description, owner_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, name, description, owner_id, created_at`,
		name, description, ownerID,
	).Scan(&c.ID, &c.Name, &c.Description, &c.OwnerID, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create community: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO community_members (community_id, user_id) VALUES ($1, $2)`,
		c.ID, ownerID); err != nil {
		return nil, fmt.Errorf("enroll owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("create community: %w", err)
	}
	c.MemberCount = 1
	return &c, nil
}

func (s *PostgresStore) GetCommunity(ctx context.Context, id int64) (*models.Community, error) {
	var c models.Community
	err := s.pool.QueryRow(ctx,
		`SELECT `+communityColumns+` FROM communities c WHERE c.id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.OwnerID, &c.MemberCount, &c.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) ListCommunities(ctx context.Context) ([]models.Community, error) {
	return s.listCommunities(ctx,
		`SELECT `+communityColumns+` FROM communities c ORDER BY c.created_at DESC`)
}

// SearchCommunities matches community names case-insensitively by
// substring.
func (s *PostgresStore) SearchCommunities(ctx context.Context, q string) ([]models.Community, error) {
	return s.listCommunities(ctx,
		`SELECT `+communityColumns+` FROM communities c
		 WHERE c.name ILIKE '%' || $1 || '%' ORDER BY c.name`, q)
}

// ListMyCommunities returns communities the user is a member of.
func (s *PostgresStore) ListMyCommunities(ctx context.Context, userID int64) ([]models.Community, error) {
	return s.listCommunities(ctx,
		`SELECT `+communityColumns+` FROM communities c
		 JOIN community_members cm ON cm.community_id = c.id
		 WHERE cm.user_id = $1 ORDER BY c.created_at DESC`, userID)
}

func (s *PostgresStore) listCommunities(ctx context.Context, query string, args ...any) ([]models.Community, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comms := []models.Community{}
	for rows.Next() {
		var c models.Community
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.OwnerID,
			&c.MemberCount, &c.CreatedAt); err != nil {
			return nil, err
		}
		comms = append(comms, c)
	}
	return comms, rows.Err()
}

func (s *PostgresStore) UpdateCommunity(ctx context.Context, id int64, upd CommunityUpdate) (*models.Community, error) {
	var c models.Community
	err := s.pool.QueryRow(ctx,
		`UPDATE communities c SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description)
		 WHERE id = $1
		 RETURNING id, name, description, owner_id,
			(SELECT COUNT(*) FROM community_members cm WHERE cm.community_id = c.id),
			created_at`,
		id, upd.Name, upd.Description,
	).Scan(&c.ID, &c.Name, &c.Description, &c.OwnerID, &c.MemberCount, &c.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("update community: %w", err)
	}
	return &c, nil
}

// DeleteCommunity removes the community; membership rows cascade.
func (s *PostgresStore) DeleteCommunity(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM communities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete community: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// JoinCommunity enrolls the user. Joining twice is a no-op.
func (s *PostgresStore) JoinCommunity(ctx context.Context, communityID, userID int64) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM communities WHERE id = $1)`, communityID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO community_members (community_id, user_id)
		 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		communityID, userID)
	if err != nil {
		return fmt.Errorf("join community: %w", err)
	}
	return nil
}

// LeaveCommunity removes the membership; ErrNotFound when the user was
// not a member.
func (s *PostgresStore) LeaveCommunity(ctx context.Context, communityID, userID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM community_members WHERE community_id = $1 AND user_id = $2`,
		communityID, userID)
	if err != nil {
		return fmt.Errorf("leave community: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListCommunityMembers(ctx context.Context, communityID int64) ([]models.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.username, u.email, u.created_at
		 FROM community_members cm
		 JOIN users u ON u.id = cm.user_id
		 WHERE cm.community_id = $1
		 ORDER BY cm.joined_at`, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
