package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"BrentPulse/internal/domain/models"
	domrepo "BrentPulse/internal/domain/repository"
	pkgch "BrentPulse/pkg/clickhouse"
	applogger "BrentPulse/pkg/logger"
)

// CHPriceSource reads an existing daily price table from ClickHouse.
type CHPriceSource struct {
	ch    *pkgch.Client
	table string
	l     *applogger.Logger
}

// NewCHPriceSource fails for table names that are not plain identifiers.
func NewCHPriceSource(ch *pkgch.Client, table string) (*CHPriceSource, error) {
	if !pkgch.ValidIdentifier(table) {
		return nil, fmt.Errorf("clickhouse table %q is not a valid identifier", table)
	}
	return &CHPriceSource{ch: ch, table: table}, nil
}

// SetLogger injects a structured logger.
func (s *CHPriceSource) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHPriceSource) Name() string { return "clickhouse" }

func (s *CHPriceSource) Health(ctx context.Context) error { return s.ch.Health(ctx) }

func (s *CHPriceSource) Load(ctx context.Context, q models.PriceQuery) (models.PriceTable, error) {
	start := time.Now()
	query, args := chPriceQuery(s.table, q)
	out := make([]models.PricePoint, 0, 4096)
	err := s.ch.Query(ctx, func(rows *sql.Rows) error {
		var p models.PricePoint
		if err := rows.Scan(&p.Time, &p.Price); err != nil {
			return err
		}
		p.Time = p.Time.UTC()
		out = append(out, p)
		return nil
	}, query, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse load_prices error",
				applogger.String("table", s.table),
				applogger.String("symbol", q.Symbol),
				applogger.Error(err),
			)
		}
		return models.PriceTable{}, fmt.Errorf("load prices: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse load_prices ok",
			applogger.String("table", s.table),
			applogger.String("symbol", q.Symbol),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return models.PriceTable{Symbol: q.Symbol, Source: s.Name(), Points: out}, nil
}

func chPriceQuery(table string, q models.PriceQuery) (string, []any) {
	query := fmt.Sprintf("SELECT day, close FROM %s WHERE symbol = ? AND day >= ?", table)
	args := []any{q.Symbol, q.From}
	if !q.To.IsZero() {
		query += " AND day <= ?"
		args = append(args, q.To)
	}
	return query + " ORDER BY day ASC", args
}

var (
	_ domrepo.PriceSource   = (*CHPriceSource)(nil)
	_ domrepo.HealthChecker = (*CHPriceSource)(nil)
)
