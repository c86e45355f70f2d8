package store

import (
	"context"
	"fmt"

	"github.com/shelfscape/backend/internal/models"
)

// Edge returns the friend edge between two users regardless of
// direction, or ErrNotFound.
func (s *PostgresStore) Edge(ctx context.Context, userA, userB int64) (*models.FriendRequest, error) {
	var fr models.FriendRequest
	err := s.pool.QueryRow(ctx,
		`SELECT id, requester_id, addressee_id, status, created_at, updated_at
		 FROM friend_requests
		 WHERE (requester_id = $1 AND addressee_id = $2)
		    OR (requester_id = $2 AND addressee_id = $1)`,
		userA, userB,
	).Scan(&fr.ID, &fr.RequesterID, &fr.AddresseeID, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &fr, nil
}

// CreateRequest inserts a pending edge. The unique pair index turns a
// concurrent duplicate into ErrDuplicate instead of a second edge.
func (s *PostgresStore) CreateRequest(ctx context.Context, requesterID, addresseeID int64) (*models.FriendRequest, error) {
	var fr models.FriendRequest
	err := s.pool.QueryRow(ctx,
		`INSERT INTO friend_requests (requester_id, addressee_id, status)
		 VALUES ($1, $2, 'pending')
		 RETURNING id, requester_id, addressee_id, status, created_at, updated_at`,
		requesterID, addresseeID,
	).Scan(&fr.ID, &fr.RequesterID, &fr.AddresseeID, &fr.Status, &fr.CreatedAt, &fr.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("create friend request: %w", err)
	}
	return &fr, nil
}

func (s *PostgresStore) SetEdgeStatus(ctx context.Context, edgeID int64, status models.FriendStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE friend_requests SET status = $2, updated_at = NOW() WHERE id = $1`,
		edgeID, status)
	if err != nil {
		return fmt.Errorf("set edge status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetEdge re-points an existing edge at a new requester and returns
// it to pending. Used when a declined pair starts over.
func (s *PostgresStore) ResetEdge(ctx context.Context, edgeID, requesterID, addresseeID int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE friend_requests
		 SET requester_id = $2, addressee_id = $3, status = 'pending', updated_at = NOW()
		 WHERE id = $1`,
		edgeID, requesterID, addresseeID)
	if err != nil {
		return fmt.Errorf("reset edge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteEdge(ctx context.Context, edgeID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM friend_requests WHERE id = $1`, edgeID)
	if err != nil {
		return fmt.Errorf("delete edge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFriends returns users linked by an accepted edge, from either
// direction.
func (s *PostgresStore) ListFriends(ctx context.Context, userID int64) ([]models.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.username, u.email, u.created_at
		 FROM friend_requests fr
		 JOIN users u ON u.id = CASE WHEN fr.requester_id = $1 THEN fr.addressee_id ELSE fr.requester_id END
		 WHERE fr.status = 'accepted' AND (fr.requester_id = $1 OR fr.addressee_id = $1)
		 ORDER BY u.username`, userID)
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

// AreFriends reports whether an accepted edge links the two users.
func (s *PostgresStore) AreFriends(ctx context.Context, userA, userB int64) (bool, error) {
	var friends bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM friend_requests
			WHERE status = 'accepted'
			  AND ((requester_id = $1 AND addressee_id = $2)
			    OR (requester_id = $2 AND addressee_id = $1))
		)`, userA, userB,
	).Scan(&friends)
	if err != nil {
		return false, fmt.Errorf("friendship check: %w", err)
	}
	return friends, nil
}

// ListIncoming returns pending requests addressed to the user.
func (s *PostgresStore) ListIncoming(ctx context.Context, userID int64) ([]models.PendingRequest, error) {
	return s.listPending(ctx,
		`SELECT fr.id, u.id, u.username, u.email, u.created_at, fr.created_at
		 FROM friend_requests fr
		 JOIN users u ON u.id = fr.requester_id
		 WHERE fr.status = 'pending' AND fr.addressee_id = $1
		 ORDER BY fr.created_at DESC`, userID)
}

// ListOutgoing returns pending requests sent by the user.
func (s *PostgresStore) ListOutgoing(ctx context.Context, userID int64) ([]models.PendingRequest, error) {
	return s.listPending(ctx,
		`SELECT fr.id, u.id, u.username, u.email, u.created_at, fr.created_at
		 FROM friend_requests fr
		 JOIN users u ON u.id = fr.addressee_id
		 WHERE fr.status = 'pending' AND fr.requester_id = $1
		 ORDER BY fr.created_at DESC`, userID)
}

func (s *PostgresStore) listPending(ctx context.Context, query string, userID int64) ([]models.PendingRequest, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := []models.PendingRequest{}
	for rows.Next() {
		var pr models.PendingRequest
		if err := rows.Scan(&pr.ID, &pr.User.ID, &pr.User.Username, &pr.User.Email,
			&pr.User.CreatedAt, &pr.CreatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, pr)
	}
	return reqs, rows.Err()
}
