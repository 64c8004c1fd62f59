package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/orbitos/operations/internal/domain"
	"github.com/orbitos/operations/internal/shared"
)

// Partners, channels and value propositions share the same CRUD shape:
// org-scoped rows with a unique name per organization.

// CreatePartner inserts a new partner.
func (s *SQLiteStore) CreatePartner(ctx context.Context, p *domain.Partner) error {
	query := `INSERT INTO partners (id, org_id, name, partner_type, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.OrgID, p.Name, p.PartnerType, p.Description, p.CreatedAt.Unix(), p.UpdatedAt.Unix())
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert partner: %w", err)
	}
	return nil
}

// GetPartner retrieves a partner by ID within an organization.
func (s *SQLiteStore) GetPartner(ctx context.Context, orgID, id string) (*domain.Partner, error) {
	query := `SELECT id, org_id, name, partner_type, description, created_at, updated_at
		FROM partners WHERE org_id = ? AND id = ?`
	return scanPartner(s.db.QueryRowContext(ctx, query, orgID, id))
}

// ListPartners returns the organization's partners ordered by name.
func (s *SQLiteStore) ListPartners(ctx context.Context, orgID string) ([]*domain.Partner, error) {
	query := `SELECT id, org_id, name, partner_type, description, created_at, updated_at
		FROM partners WHERE org_id = ? ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("query partners: %w", err)
	}
	defer closeRows(rows, "partners")

	var partners []*domain.Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate partners: %w", err)
	}
	return partners, nil
}

// UpdatePartner updates a partner's fields.
func (s *SQLiteStore) UpdatePartner(ctx context.Context, p *domain.Partner) error {
	query := `UPDATE partners SET name = ?, partner_type = ?, description = ?, updated_at = ?
		WHERE org_id = ? AND id = ?`
	result, err := s.db.ExecContext(ctx, query,
		p.Name, p.PartnerType, p.Description, time.Now().Unix(), p.OrgID, p.ID)
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update partner: %w", err)
	}
	return requireRow(result, "partner")
}

// DeletePartner removes a partner.
func (s *SQLiteStore) DeletePartner(ctx context.Context, orgID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM partners WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete partner: %w", err)
	}
	return requireRow(result, "partner")
}

// CreateChannel inserts a new channel.
func (s *SQLiteStore) CreateChannel(ctx context.Context, c *domain.Channel) error {
	query := `INSERT INTO channels (id, org_id, name, channel_type, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		c.ID, c.OrgID, c.Name, c.ChannelType, c.Description, c.CreatedAt.Unix(), c.UpdatedAt.Unix())
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

// GetChannel retrieves a channel by ID within an organization.
func (s *SQLiteStore) GetChannel(ctx context.Context, orgID, id string) (*domain.Channel, error) {
	query := `SELECT id, org_id, name, channel_type, description, created_at, updated_at
		FROM channels WHERE org_id = ? AND id = ?`
	return scanChannel(s.db.QueryRowContext(ctx, query, orgID, id))
}

// ListChannels returns the organization's channels ordered by name.
func (s *SQLiteStore) ListChannels(ctx context.Context, orgID string) ([]*domain.Channel, error) {
	query := `SELECT id, org_id, name, channel_type, description, created_at, updated_at
		FROM channels WHERE org_id = ? ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer closeRows(rows, "channels")

	var channels []*domain.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}
	return channels, nil
}

// UpdateChannel updates a channel's fields.
func (s *SQLiteStore) UpdateChannel(ctx context.Context, c *domain.Channel) error {
	query := `UPDATE channels SET name = ?, channel_type = ?, description = ?, updated_at = ?
		WHERE org_id = ? AND id = ?`
	result, err := s.db.ExecContext(ctx, query,
		c.Name, c.ChannelType, c.Description, time.Now().Unix(), c.OrgID, c.ID)
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update channel: %w", err)
	}
	return requireRow(result, "channel")
}

// DeleteChannel removes a channel.
func (s *SQLiteStore) DeleteChannel(ctx context.Context, orgID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM channels WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return requireRow(result, "channel")
}

// CreateValueProposition inserts a new value proposition.
func (s *SQLiteStore) CreateValueProposition(ctx context.Context, v *domain.ValueProposition) error {
	query := `INSERT INTO value_propositions (id, org_id, name, segment, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		v.ID, v.OrgID, v.Name, v.Segment, v.Description, v.CreatedAt.Unix(), v.UpdatedAt.Unix())
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert value proposition: %w", err)
	}
	return nil
}

// GetValueProposition retrieves a value proposition by ID within an organization.
func (s *SQLiteStore) GetValueProposition(ctx context.Context, orgID, id string) (*domain.ValueProposition, error) {
	query := `SELECT id, org_id, name, segment, description, created_at, updated_at
		FROM value_propositions WHERE org_id = ? AND id = ?`
	return scanValueProposition(s.db.QueryRowContext(ctx, query, orgID, id))
}

// ListValuePropositions returns the organization's value propositions ordered by name.
func (s *SQLiteStore) ListValuePropositions(ctx context.Context, orgID string) ([]*domain.ValueProposition, error) {
	query := `SELECT id, org_id, name, segment, description, created_at, updated_at
		FROM value_propositions WHERE org_id = ? ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("query value propositions: %w", err)
	}
	defer closeRows(rows, "value_propositions")

	var vps []*domain.ValueProposition
	for rows.Next() {
		v, err := scanValueProposition(rows)
		if err != nil {
			return nil, err
		}
		vps = append(vps, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate value propositions: %w", err)
	}
	return vps, nil
}

// UpdateValueProposition updates a value proposition's fields.
func (s *SQLiteStore) UpdateValueProposition(ctx context.Context, v *domain.ValueProposition) error {
	query := `UPDATE value_propositions SET name = ?, segment = ?, description = ?, updated_at = ?
		WHERE org_id = ? AND id = ?`
	result, err := s.db.ExecContext(ctx, query,
		v.Name, v.Segment, v.Description, time.Now().Unix(), v.OrgID, v.ID)
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update value proposition: %w", err)
	}
	return requireRow(result, "value proposition")
}

// DeleteValueProposition removes a value proposition.
func (s *SQLiteStore) DeleteValueProposition(ctx context.Context, orgID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM value_propositions WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete value proposition: %w", err)
	}
	return requireRow(result, "value proposition")
}

func scanPartner(row rowScanner) (*domain.Partner, error) {
	var p domain.Partner
	var createdAt, updatedAt int64
	err := row.Scan(&p.ID, &p.OrgID, &p.Name, &p.PartnerType, &p.Description, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan partner row: %w", err)
	}
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	return &p, nil
}

func scanChannel(row rowScanner) (*domain.Channel, error) {
	var c domain.Channel
	var createdAt, updatedAt int64
	err := row.Scan(&c.ID, &c.OrgID, &c.Name, &c.ChannelType, &c.Description, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan channel row: %w", err)
	}
	c.CreatedAt = time.Unix(createdAt, 0)
	c.UpdatedAt = time.Unix(updatedAt, 0)
	return &c, nil
}

func scanValueProposition(row rowScanner) (*domain.ValueProposition, error) {
	var v domain.ValueProposition
	var createdAt, updatedAt int64
	err := row.Scan(&v.ID, &v.OrgID, &v.Name, &v.Segment, &v.Description, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan value proposition row: %w", err)
	}
	v.CreatedAt = time.Unix(createdAt, 0)
	v.UpdatedAt = time.Unix(updatedAt, 0)
	return &v, nil
}
