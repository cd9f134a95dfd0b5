package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// studentRepo implements StudentRepo with ent's SQL builders.
type studentRepo struct {
	s *Store
}

func (r *studentRepo) GetOrCreateStudent(ctx context.Context, name, email string) (*Student, error) {
	var out *Student
	err := r.s.withTx(ctx, func(tx dialect.Tx) error {
		st, err := findStudentByEmail(ctx, tx, email)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		if st == nil {
			st, err = insertStudent(ctx, tx, name, email)
			if err != nil {
				return err
			}
			out = st
			return nil
		}

		if st.Name != name {
			query, args := entsql.Dialect(dialect.SQLite).
				Update(tableStudents).
				Set("name", name).
				Where(entsql.EQ("id", st.ID)).
				Query()
			if err := tx.Exec(ctx, query, args, nil); err != nil {
				return fmt.Errorf("update student name: %w", err)
			}
			st.Name = name
		}
		out = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insertStudent(ctx context.Context, tx dialect.Tx, name, email string) (*Student, error) {
	now := time.Now().UTC()
	query, args := entsql.Dialect(dialect.SQLite).
		Insert(tableStudents).
		Columns("name", "email", "created_at").
		Values(name, email, now).
		Query()

	var res sql.Result
	if err := tx.Exec(ctx, query, args, &res); err != nil {
		return nil, fmt.Errorf("insert student: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("student id: %w", err)
	}
	return &Student{ID: int(id), Name: name, Email: email, CreatedAt: now}, nil
}

func findStudentByEmail(ctx context.Context, conn dialect.ExecQuerier, email string) (*Student, error) {
	b := entsql.Dialect(dialect.SQLite)
	query, args := b.Select("id", "name", "email", "created_at").
		From(b.Table(tableStudents)).
		Where(entsql.EQ("email", email)).
		Limit(1).
		Query()

	var rows entsql.Rows
	if err := conn.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query student: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query student: %w", err)
		}
		return nil, ErrNotFound
	}
	var st Student
	if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan student: %w", err)
	}
	return &st, rows.Err()
}
