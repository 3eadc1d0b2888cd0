package rulestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/gridrules/internal/core"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PostgresStore keeps rule sets in the rule_sets table. Rules are stored
// as a JSONB array in their flat wire form.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore returns a store over db. The schema is created by the
// embedded migrations (see Migrate).
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// List returns every rule set in creation order.
func (s *PostgresStore) List(ctx context.Context) ([]core.RuleSet, error) {
	rows, err := s.db.Query(ctx, `
		SELECT name, rules
		FROM rule_sets
		ORDER BY created_at ASC, name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list rule sets: %w", err)
	}
	defer rows.Close()

	var sets []core.RuleSet
	for rows.Next() {
		var (
			name  string
			rules []byte
		)
		if err := rows.Scan(&name, &rules); err != nil {
			return nil, fmt.Errorf("scan rule set: %w", err)
		}
		set, err := decodeRow(name, rules)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule sets: %w", err)
	}
	return sets, nil
}

// Get returns the rule set called name.
func (s *PostgresStore) Get(ctx context.Context, name string) (core.RuleSet, error) {
	var rules []byte
	err := s.db.QueryRow(ctx, `SELECT rules FROM rule_sets WHERE name = $1`, name).Scan(&rules)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.RuleSet{}, notFound(name)
	}
	if err != nil {
		return core.RuleSet{}, fmt.Errorf("get rule set %q: %w", name, err)
	}
	return decodeRow(name, rules)
}

// Create inserts set. The name must be unused.
func (s *PostgresStore) Create(ctx context.Context, set core.RuleSet) (core.RuleSet, error) {
	prepared, err := Prepare(set)
	if err != nil {
		return core.RuleSet{}, err
	}
	rules, err := json.Marshal(prepared.Rules)
	if err != nil {
		return core.RuleSet{}, fmt.Errorf("marshal rules: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO rule_sets (id, name, rules, created_at, updated_at)
		VALUES ($1, $2, $3, clock_timestamp(), clock_timestamp())
	`, uuid.New(), prepared.Name, rules)
	if isUniqueViolation(err) {
		return core.RuleSet{}, alreadyExists(prepared.Name)
	}
	if err != nil {
		return core.RuleSet{}, fmt.Errorf("insert rule set: %w", err)
	}
	return prepared, nil
}

// Update replaces the rule set called name, renaming it when set.Name
// differs. created_at is preserved.
func (s *PostgresStore) Update(ctx context.Context, name string, set core.RuleSet) (core.RuleSet, error) {
	prepared, err := Prepare(set)
	if err != nil {
		return core.RuleSet{}, err
	}
	rules, err := json.Marshal(prepared.Rules)
	if err != nil {
		return core.RuleSet{}, fmt.Errorf("marshal rules: %w", err)
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE rule_sets
		SET name = $1, rules = $2, updated_at = now()
		WHERE name = $3
	`, prepared.Name, rules, name)
	if isUniqueViolation(err) {
		return core.RuleSet{}, alreadyExists(prepared.Name)
	}
	if err != nil {
		return core.RuleSet{}, fmt.Errorf("update rule set %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return core.RuleSet{}, notFound(name)
	}
	return prepared, nil
}

// Delete removes the rule set called name.
func (s *PostgresStore) Delete(ctx context.Context, name string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM rule_sets WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete rule set %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(name)
	}
	return nil
}

func decodeRow(name string, rules []byte) (core.RuleSet, error) {
	set := core.RuleSet{Name: name, Rules: []core.Rule{}}
	if err := json.Unmarshal(rules, &set.Rules); err != nil {
		return core.RuleSet{}, fmt.Errorf("decode rules of %q: %w", name, err)
	}
	return set, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
