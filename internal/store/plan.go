package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// planColumns is the select list scanned by scanPlan, in order.
var planColumns = []string{
	"id", "student_id", "start_date", "availability",
	"python_level", "sql_level", "cloud_level",
	"used_git", "used_docker", "interests", "main_challenge",
	"conversation", "created_at", "updated_at",
}

// planRepo implements PlanRepo with ent's SQL builders.
type planRepo struct {
	s *Store
}

func (r *planRepo) CreatePlan(ctx context.Context, p NewPlan) (*Plan, error) {
	if len(p.Conversation) < 2 {
		return nil, ErrConversationTooShort
	}

	availability, err := json.Marshal(p.Availability)
	if err != nil {
		return nil, fmt.Errorf("marshal availability: %w", err)
	}
	interests, err := json.Marshal(nonNil(p.Interests))
	if err != nil {
		return nil, fmt.Errorf("marshal interests: %w", err)
	}
	conv, err := json.Marshal(p.Conversation)
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}

	now := time.Now().UTC()
	var out *Plan
	err = r.s.withTx(ctx, func(tx dialect.Tx) error {
		query, args := entsql.Dialect(dialect.SQLite).
			Insert(tablePlans).
			Columns(planColumns[1:]...).
			Values(
				p.StudentID, p.StartDate, availability,
				p.Skills.Python, p.Skills.SQL, p.Skills.Cloud,
				p.UsedGit, p.UsedDocker, interests, p.MainChallenge,
				conv, now, now,
			).
			Query()

		var res sql.Result
		if err := tx.Exec(ctx, query, args, &res); err != nil {
			return fmt.Errorf("insert plan: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("plan id: %w", err)
		}

		out, err = getPlan(ctx, tx, int(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planRepo) AppendConversation(ctx context.Context, planID int, conv []Turn) (*Plan, error) {
	data, err := json.Marshal(conv)
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}

	var out *Plan
	err = r.s.withTx(ctx, func(tx dialect.Tx) error {
		current, err := getPlan(ctx, tx, planID)
		if err != nil {
			return err
		}
		if !extends(conv, current.Conversation) {
			return fmt.Errorf("plan %d: %w", planID, ErrConversationConflict)
		}

		query, args := entsql.Dialect(dialect.SQLite).
			Update(tablePlans).
			Set("conversation", data).
			Set("updated_at", time.Now().UTC()).
			Where(entsql.EQ("id", planID)).
			Query()

		var res sql.Result
		if err := tx.Exec(ctx, query, args, &res); err != nil {
			return fmt.Errorf("update conversation: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}

		out, err = getPlan(ctx, tx, planID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planRepo) GetPlan(ctx context.Context, id int) (*Plan, error) {
	var out *Plan
	err := r.s.withTx(ctx, func(tx dialect.Tx) error {
		var err error
		out, err = getPlan(ctx, tx, id)
		return err
	})
	return out, err
}

func (r *planRepo) ListPlansByStudent(ctx context.Context, studentID int) ([]*Plan, error) {
	var out []*Plan
	err := r.s.withTx(ctx, func(tx dialect.Tx) error {
		b := entsql.Dialect(dialect.SQLite)
		query, args := b.Select(planColumns...).
			From(b.Table(tablePlans)).
			Where(entsql.EQ("student_id", studentID)).
			OrderBy("id").
			Query()

		var rows entsql.Rows
		if err := tx.Query(ctx, query, args, &rows); err != nil {
			return fmt.Errorf("query plans: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanPlan(&rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func getPlan(ctx context.Context, conn dialect.ExecQuerier, id int) (*Plan, error) {
	b := entsql.Dialect(dialect.SQLite)
	query, args := b.Select(planColumns...).
		From(b.Table(tablePlans)).
		Where(entsql.EQ("id", id)).
		Query()

	var rows entsql.Rows
	if err := conn.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query plan: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query plan: %w", err)
		}
		return nil, fmt.Errorf("plan %d: %w", id, ErrNotFound)
	}
	return scanPlan(&rows)
}

func scanPlan(rows *entsql.Rows) (*Plan, error) {
	var (
		p                                 Plan
		availability, interests, convJSON []byte
	)
	err := rows.Scan(
		&p.ID, &p.StudentID, &p.StartDate, &availability,
		&p.Skills.Python, &p.Skills.SQL, &p.Skills.Cloud,
		&p.UsedGit, &p.UsedDocker, &interests, &p.MainChallenge,
		&convJSON, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan plan: %w", err)
	}
	if err := json.Unmarshal(availability, &p.Availability); err != nil {
		return nil, fmt.Errorf("decode availability: %w", err)
	}
	if len(interests) > 0 {
		if err := json.Unmarshal(interests, &p.Interests); err != nil {
			return nil, fmt.Errorf("decode interests: %w", err)
		}
	}
	if err := json.Unmarshal(convJSON, &p.Conversation); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return &p, nil
}

// extends reports whether next keeps every turn of prev, in order, and
// adds at least one.
func extends(next, prev []Turn) bool {
	if len(next) <= len(prev) {
		return false
	}
	for i := range prev {
		if next[i] != prev[i] {
			return false
		}
	}
	return true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// IsNotFound reports whether err is a not-found error from this package.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
