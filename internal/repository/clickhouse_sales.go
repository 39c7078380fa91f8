package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fluxcast/internal/domain/models"
	domrepo "fluxcast/internal/domain/repository"
	pkgch "fluxcast/pkg/clickhouse"
	applogger "fluxcast/pkg/logger"
	"fluxcast/pkg/util"
)

// CHSalesReader implements HistoryReader and ReferenceReader backed by
// ClickHouse. Daily rows are grouped per calendar day at query time, so
// duplicate ingestion rows for one day collapse before they reach the
// feature builder.
type CHSalesReader struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSalesReader(ch *pkgch.Client) *CHSalesReader {
	return &CHSalesReader{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSalesReader) SetLogger(l *applogger.Logger) { s.l = l }

var (
	_ domrepo.HistoryReader   = (*CHSalesReader)(nil)
	_ domrepo.ReferenceReader = (*CHSalesReader)(nil)
)

func (s *CHSalesReader) ItemExists(ctx context.Context, restaurantID, itemName string) (bool, error) {
	const q = `
        SELECT count()
        FROM fluxcast.menu_items
        WHERE restaurant_id = ? AND item_name = ?
    `
	var n uint64
	if err := s.db.QueryRowContext(ctx, q, restaurantID, itemName).Scan(&n); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse item_exists query error",
				applogger.String("restaurant_id", restaurantID),
				applogger.String("item", itemName),
				applogger.Error(err),
			)
		}
		return false, fmt.Errorf("item exists: %w", err)
	}
	return n > 0, nil
}

func (s *CHSalesReader) ItemHistory(ctx context.Context, restaurantID, itemName string, lookbackDays int) ([]models.DailyObservation, error) {
	start := time.Now()
	const q = `
        SELECT
            toDate(date) AS d,
            sum(quantity) AS qty,
            max(stockout) AS so,
            max(is_promo) AS promo,
            min(first_sale) AS fs,
            max(last_sale) AS ls
        FROM fluxcast.daily_sales
        WHERE restaurant_id = ? AND item_name = ? AND date >= today() - ?
        GROUP BY d
        ORDER BY d ASC
    `
	rows, err := s.db.QueryContext(ctx, q, restaurantID, itemName, lookbackDays)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse item_history query error",
				applogger.String("restaurant_id", restaurantID),
				applogger.String("item", itemName),
				applogger.Int("lookback_days", lookbackDays),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("item history: %w", err)
	}
	defer rows.Close()

	out := make([]models.DailyObservation, 0, lookbackDays)
	for rows.Next() {
		var (
			day         time.Time
			qty         float64
			so, promo   uint8
			first, last sql.NullTime
		)
		if err := rows.Scan(&day, &qty, &so, &promo, &first, &last); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse item_history scan error",
					applogger.String("restaurant_id", restaurantID),
					applogger.String("item", itemName),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		out = append(out, models.DailyObservation{
			Date:        util.Day(day),
			RawQuantity: qty,
			Stockout:    so > 0,
			IsPromotion: promo > 0,
			HoursOpen:   util.HoursOpen(first.Time, last.Time),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse item_history ok",
			applogger.String("restaurant_id", restaurantID),
			applogger.String("item", itemName),
			applogger.Int("lookback_days", lookbackDays),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// ReferenceSeries pools sales across a category, or across the whole
// restaurant when group is empty. Totals drive seasonality, per-item
// quantities drive prior learning.
func (s *CHSalesReader) ReferenceSeries(ctx context.Context, restaurantID, group string, lookbackDays int) (models.ReferenceSeries, error) {
	start := time.Now()

	totals, err := s.referenceTotals(ctx, restaurantID, group, lookbackDays)
	if err != nil {
		return models.ReferenceSeries{}, err
	}
	perItem, err := s.referencePerItem(ctx, restaurantID, group, lookbackDays)
	if err != nil {
		return models.ReferenceSeries{}, err
	}

	if s.l != nil {
		s.l.Info("clickhouse reference_series ok",
			applogger.String("restaurant_id", restaurantID),
			applogger.String("group", group),
			applogger.Int("days", len(totals)),
			applogger.Int("items", len(perItem)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return models.ReferenceSeries{Totals: totals, PerItem: perItem}, nil
}

func (s *CHSalesReader) referenceTotals(ctx context.Context, restaurantID, group string, lookbackDays int) ([]models.DailyTotal, error) {
	q := `
        SELECT toDate(ds.date) AS d, sum(ds.quantity) AS qty
        FROM fluxcast.daily_sales ds
        WHERE ds.restaurant_id = ? AND ds.date >= today() - ?
        GROUP BY d
        ORDER BY d ASC
    `
	args := []interface{}{restaurantID, lookbackDays}
	if group != "" {
		q = `
        SELECT toDate(ds.date) AS d, sum(ds.quantity) AS qty
        FROM fluxcast.daily_sales ds
        INNER JOIN fluxcast.menu_items mi
            ON mi.restaurant_id = ds.restaurant_id AND mi.item_name = ds.item_name
        WHERE ds.restaurant_id = ? AND mi.category = ? AND ds.date >= today() - ?
        GROUP BY d
        ORDER BY d ASC
    `
		args = []interface{}{restaurantID, group, lookbackDays}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse reference_totals query error",
				applogger.String("restaurant_id", restaurantID),
				applogger.String("group", group),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("reference totals: %w", err)
	}
	defer rows.Close()

	out := make([]models.DailyTotal, 0, lookbackDays)
	for rows.Next() {
		var (
			day time.Time
			qty float64
		)
		if err := rows.Scan(&day, &qty); err != nil {
			return nil, fmt.Errorf("scan total: %w", err)
		}
		out = append(out, models.DailyTotal{Date: util.Day(day), Quantity: qty})
	}
	return out, rows.Err()
}

func (s *CHSalesReader) referencePerItem(ctx context.Context, restaurantID, group string, lookbackDays int) (map[string][]float64, error) {
	q := `
        SELECT ds.item_name, toDate(ds.date) AS d, sum(ds.quantity) AS qty
        FROM fluxcast.daily_sales ds
        WHERE ds.restaurant_id = ? AND ds.date >= today() - ?
        GROUP BY ds.item_name, d
        ORDER BY ds.item_name, d ASC
    `
	args := []interface{}{restaurantID, lookbackDays}
	if group != "" {
		q = `
        SELECT ds.item_name, toDate(ds.date) AS d, sum(ds.quantity) AS qty
        FROM fluxcast.daily_sales ds
        INNER JOIN fluxcast.menu_items mi
            ON mi.restaurant_id = ds.restaurant_id AND mi.item_name = ds.item_name
        WHERE ds.restaurant_id = ? AND mi.category = ? AND ds.date >= today() - ?
        GROUP BY ds.item_name, d
        ORDER BY ds.item_name, d ASC
    `
		args = []interface{}{restaurantID, group, lookbackDays}
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse reference_per_item query error",
				applogger.String("restaurant_id", restaurantID),
				applogger.String("group", group),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("reference per item: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]float64)
	for rows.Next() {
		var (
			item string
			day  time.Time
			qty  float64
		)
		if err := rows.Scan(&item, &day, &qty); err != nil {
			return nil, fmt.Errorf("scan per item: %w", err)
		}
		out[item] = append(out[item], qty)
	}
	return out, rows.Err()
}
