package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// LLMEventRepo implements EventRepo and EventQuerier backed by the
// llm_request_events table and the global sequence counter.
type LLMEventRepo struct {
	s *Store
}

var (
	_ EventRepo    = (*LLMEventRepo)(nil)
	_ EventQuerier = (*LLMEventRepo)(nil)
)

func (r *LLMEventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	return r.s.withTx(ctx, func(tx dialect.Tx) error {
		seqNum, err := r.s.seq.Next(ctx, tx)
		if err != nil {
			return err
		}

		query, args := entsql.Dialect(dialect.SQLite).
			Insert(tableLLMEvents).
			Columns(
				"sequence", "timestamp", "provider", "model", "purpose",
				"input_tokens", "output_tokens", "latency_ms", "success",
				"error_message", "request_body", "response_body",
			).
			Values(
				seqNum, time.Now().UTC(), data.Provider, data.Model, data.Purpose,
				data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
				data.ErrorMessage, data.RequestBody, data.ResponseBody,
			).
			Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			return fmt.Errorf("save LLM request event: %w", err)
		}
		return nil
	})
}

// QueryLLMEvents returns recorded events, newest first.
func (r *LLMEventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	b := entsql.Dialect(dialect.SQLite)
	sel := b.Select(
		"sequence", "timestamp", "provider", "model", "purpose",
		"input_tokens", "output_tokens", "latency_ms", "success",
		"error_message", "request_body", "response_body",
	).From(b.Table(tableLLMEvents))

	var preds []*entsql.Predicate
	if opts.After > 0 {
		preds = append(preds, entsql.GT("sequence", opts.After))
	}
	if !opts.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", opts.To.UTC()))
	}
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()

	var out []LLMRequestEvent
	err := r.s.withTx(ctx, func(tx dialect.Tx) error {
		var rows entsql.Rows
		if err := tx.Query(ctx, query, args, &rows); err != nil {
			return fmt.Errorf("query LLM events: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var e LLMRequestEvent
			if err := rows.Scan(
				&e.Sequence, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose,
				&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success,
				&e.ErrorMessage, &e.RequestBody, &e.ResponseBody,
			); err != nil {
				return fmt.Errorf("scan LLM event: %w", err)
			}
			out = append(out, e)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LLMUsageByModel aggregates call counts and token totals per model.
func (r *LLMEventRepo) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	b := entsql.Dialect(dialect.SQLite)
	query, args := b.Select(
		"provider",
		"model",
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As("SUM(CASE WHEN success THEN 0 ELSE 1 END)", "failures"),
		entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
		entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
	).
		From(b.Table(tableLLMEvents)).
		GroupBy("provider", "model").
		OrderBy("provider", "model").
		Query()

	var out []ModelUsage
	err := r.s.withTx(ctx, func(tx dialect.Tx) error {
		var rows entsql.Rows
		if err := tx.Query(ctx, query, args, &rows); err != nil {
			return fmt.Errorf("query LLM usage: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var u ModelUsage
			if err := rows.Scan(&u.Provider, &u.Model, &u.Calls, &u.Failures, &u.InputTokens, &u.OutputTokens); err != nil {
				return fmt.Errorf("scan LLM usage: %w", err)
			}
			out = append(out, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
