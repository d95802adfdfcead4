package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/profiteer-io/profiteer-api/models"
)

// Lookback windows accepted by the trends endpoint. Zero means unbounded.
var periodDays = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
	"1y":  365,
	"all": 0,
}

// PriceTracker appends price observations and serves trend views over the
// accumulated history. price_history is append-only.
type PriceTracker struct {
	DB *sql.DB
}

func NewPriceTracker(db *sql.DB) *PriceTracker {
	return &PriceTracker{DB: db}
}

// AppendObservations batch-inserts observations for an item. Duplicates
// are acceptable: the data feeds append-only trend analysis, so
// at-least-once is the contract.
func (s *PriceTracker) AppendObservations(ctx context.Context, itemID string, observations []models.PriceObservation) error {
	if len(observations) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(observations); i += batchSize {
		end := i + batchSize
		if end > len(observations) {
			end = len(observations)
		}
		if err := s.insertBatch(ctx, itemID, observations[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *PriceTracker) insertBatch(ctx context.Context, itemID string, batch []models.PriceObservation) error {
	query, args := buildObservationInsert(itemID, batch)
	if _, err := s.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert price observations: %w", err)
	}
	return nil
}

// buildObservationInsert renders a multi-row insert. Each row binds five
// arguments, so row idx starts at placeholder idx*5+1.
func buildObservationInsert(itemID string, batch []models.PriceObservation) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*5)

	for idx, obs := range batch {
		base := idx * 5
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,NULLIF($%d,''),$%d)", base+1, base+2, base+3, base+4, base+5))

		var soldDate interface{}
		if obs.SoldDate != nil {
			soldDate = *obs.SoldDate
		}
		valueArgs = append(valueArgs, itemID, obs.Marketplace, obs.Price, obs.Condition, soldDate)
	}

	query := fmt.Sprintf(`
		INSERT INTO price_history (item_id, marketplace, price, condition, sold_date)
		VALUES %s
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}

// GetTrends builds a per-marketplace trend view for an item over the given
// period ("7d", "30d", "90d", "1y", "all").
func (s *PriceTracker) GetTrends(ctx context.Context, item *models.Item, period string) (*models.TrendResponse, error) {
	days, ok := periodDays[period]
	if !ok {
		period = "30d"
		days = 30
	}

	query := `
		SELECT marketplace, price, recorded_at
		FROM price_history
		WHERE item_id = $1
	`
	args := []interface{}{item.ID}
	if days > 0 {
		query += ` AND recorded_at >= $2`
		args = append(args, time.Now().UTC().AddDate(0, 0, -days))
	}
	query += ` ORDER BY recorded_at`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	type observation struct {
		marketplace string
		price       float64
		recordedAt  time.Time
	}

	var all []observation
	for rows.Next() {
		var obs observation
		if err := rows.Scan(&obs.marketplace, &obs.price, &obs.recordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %w", err)
		}
		all = append(all, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	marketplaces := make(map[string]models.MarketplaceTrend)
	byMarketplace := make(map[string][]observation)
	var allPrices []float64

	for _, obs := range all {
		byMarketplace[obs.marketplace] = append(byMarketplace[obs.marketplace], obs)
		allPrices = append(allPrices, obs.price)
	}

	for name, obsList := range byMarketplace {
		trend := models.MarketplaceTrend{
			Data: make([]models.PricePoint, 0, len(obsList)),
			Low:  obsList[0].price,
		}
		var sum float64
		for _, obs := range obsList {
			trend.Data = append(trend.Data, models.PricePoint{
				Date:  obs.recordedAt.Format(time.RFC3339),
				Price: obs.price,
			})
			sum += obs.price
			if obs.price > trend.High {
				trend.High = obs.price
			}
			if obs.price < trend.Low {
				trend.Low = obs.price
			}
		}
		trend.Current = obsList[len(obsList)-1].price
		trend.Avg = roundCents(sum / float64(len(obsList)))
		marketplaces[name] = trend
	}

	response := &models.TrendResponse{
		ItemID:       item.ID,
		ItemName:     item.Name,
		Period:       period,
		Trend:        "stable",
		Marketplaces: marketplaces,
	}

	if len(allPrices) > 0 {
		response.CurrentPrice = allPrices[len(allPrices)-1]
		if first := allPrices[0]; first != 0 {
			response.PriceChangePct = roundTenth((response.CurrentPrice - first) / first * 100)
		}
		response.Trend = classifyTrend(allPrices)
	}

	effectiveDays := days
	if effectiveDays == 0 {
		effectiveDays = 1
		if len(all) > 0 {
			if span := int(time.Since(all[0].recordedAt).Hours() / 24); span > 1 {
				effectiveDays = span
			}
		}
	}
	response.Volume = models.TrendVolume{
		TotalSalesPeriod: len(all),
		AvgDailySales:    roundTenth(float64(len(all)) / float64(effectiveDays)),
	}

	return response, nil
}

// classifyTrend compares the average of the first third of prices against
// the last third: above +5% is rising, below −5% falling, else stable.
func classifyTrend(prices []float64) string {
	if len(prices) < 3 {
		return "stable"
	}

	third := len(prices) / 3
	if third < 1 {
		third = 1
	}

	var firstSum, lastSum float64
	for _, p := range prices[:third] {
		firstSum += p
	}
	for _, p := range prices[len(prices)-third:] {
		lastSum += p
	}

	firstAvg := firstSum / float64(third)
	lastAvg := lastSum / float64(third)
	if firstAvg == 0 {
		return "stable"
	}

	changePct := (lastAvg - firstAvg) / firstAvg * 100
	switch {
	case changePct > 5:
		return "rising"
	case changePct < -5:
		return "falling"
	default:
		return "stable"
	}
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

func roundTenth(v float64) float64 {
	if v < 0 {
		return float64(int64(v*10-0.5)) / 10
	}
	return float64(int64(v*10+0.5)) / 10
}
