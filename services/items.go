package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/profiteer-io/profiteer-api/models"
)

// ItemService resolves canonical item records by name. Items are created
// on first sight of a query and never deleted here.
type ItemService struct {
	DB *sql.DB
}

func NewItemService(db *sql.DB) *ItemService {
	return &ItemService{DB: db}
}

// FindOrCreate looks an item up by case-insensitive name, creating it when
// absent. imageURL is only stored on creation; an existing record keeps
// whatever image it already has.
func (s *ItemService) FindOrCreate(ctx context.Context, name, imageURL string) (*models.Item, error) {
	item, err := s.findByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}

	// The unique index on LOWER(name) makes concurrent creation of the
	// same item resolve to one row.
	item = &models.Item{}
	var image sql.NullString
	err = s.DB.QueryRowContext(ctx, `
		INSERT INTO items (name, image_url)
		VALUES ($1, NULLIF($2, ''))
		ON CONFLICT ((LOWER(name))) DO UPDATE SET updated_at = NOW()
		RETURNING id, name, COALESCE(image_url, ''), created_at, updated_at
	`, name, imageURL).Scan(&item.ID, &item.Name, &image, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	item.ImageURL = image.String

	log.Printf("[items] Created item id=%s name=%q", item.ID, item.Name)
	return item, nil
}

// GetByID fetches a single item, or nil when it does not exist.
func (s *ItemService) GetByID(ctx context.Context, id string) (*models.Item, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(upc, ''), COALESCE(sku, ''), COALESCE(category, ''),
		       COALESCE(image_url, ''), COALESCE(description, ''), created_at, updated_at
		FROM items
		WHERE id = $1
	`, id)
	return scanItem(row)
}

// Search returns items whose name matches the query (case-insensitive),
// ordered by name.
func (s *ItemService) Search(ctx context.Context, query string, limit int) ([]models.Item, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, COALESCE(upc, ''), COALESCE(sku, ''), COALESCE(category, ''),
		       COALESCE(image_url, ''), COALESCE(description, ''), created_at, updated_at
		FROM items
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(
			&item.ID, &item.Name, &item.UPC, &item.SKU, &item.Category,
			&item.ImageURL, &item.Description, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *ItemService) findByName(ctx context.Context, name string) (*models.Item, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, name, COALESCE(upc, ''), COALESCE(sku, ''), COALESCE(category, ''),
		       COALESCE(image_url, ''), COALESCE(description, ''), created_at, updated_at
		FROM items
		WHERE LOWER(name) = LOWER($1)
		LIMIT 1
	`, name)
	return scanItem(row)
}

func scanItem(row *sql.Row) (*models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID, &item.Name, &item.UPC, &item.SKU, &item.Category,
		&item.ImageURL, &item.Description, &item.CreatedAt, &item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}
	return &item, nil
}
