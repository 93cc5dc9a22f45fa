package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

const productColumns = `id, title, description, short_description, category, price, image, images, author,
	author_id, rating, downloads, is_featured, tags, license_type, download_url, file_size, version, created_at`

type ProductInput struct {
	Title            string
	Description      string
	ShortDescription *string
	Category         string
	Price            decimal.Decimal
	Image            string
	Images           []string
	Author           string
	AuthorID         *string
	Rating           decimal.Decimal
	Downloads        int
	IsFeatured       bool
	Tags             []string
	LicenseType      string
	DownloadURL      *string
	FileSize         *string
	Version          *string
}

// ProductPatch carries a partial update; nil fields keep their stored value.
type ProductPatch struct {
	Title            *string
	Description      *string
	ShortDescription *string
	Category         *string
	Price            *decimal.Decimal
	Image            *string
	Images           *[]string
	Author           *string
	AuthorID         *string
	Rating           *decimal.Decimal
	Downloads        *int
	IsFeatured       *bool
	Tags             *[]string
	LicenseType      *string
	DownloadURL      *string
	FileSize         *string
	Version          *string
}

type ProductFilter struct {
	Category string
	Featured *bool
	Query    string
}

func scanProduct(row scanner) (*models.Product, error) {
	product := &models.Product{}
	var images, tags pq.StringArray
	err := row.Scan(
		&product.ID,
		&product.Title,
		&product.Description,
		&product.ShortDescription,
		&product.Category,
		&product.Price,
		&product.Image,
		&images,
		&product.Author,
		&product.AuthorID,
		&product.Rating,
		&product.Downloads,
		&product.IsFeatured,
		&tags,
		&product.LicenseType,
		&product.DownloadURL,
		&product.FileSize,
		&product.Version,
		&product.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	product.Images = []string(images)
	product.Tags = []string(tags)
	return product, nil
}

func arrayArg(values *[]string) interface{} {
	if values == nil {
		return nil
	}
	return pq.StringArray(*values)
}

func CreateProduct(ctx context.Context, q database.Querier, in ProductInput) (*models.Product, error) {
	query := `
		INSERT INTO products (title, description, short_description, category, price, image, images, author,
			author_id, rating, downloads, is_featured, tags, license_type, download_url, file_size, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW())
		RETURNING ` + productColumns

	product, err := scanProduct(q.QueryRowContext(ctx, query,
		in.Title, in.Description, in.ShortDescription, in.Category, in.Price, in.Image, pq.StringArray(in.Images),
		in.Author, in.AuthorID, in.Rating, in.Downloads, in.IsFeatured, pq.StringArray(in.Tags), in.LicenseType,
		in.DownloadURL, in.FileSize, in.Version,
	))
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return product, nil
}

func GetProduct(ctx context.Context, q database.Querier, id string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func UpdateProduct(ctx context.Context, q database.Querier, id string, p ProductPatch) (*models.Product, error) {
	query := `
		UPDATE products SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			short_description = COALESCE($4, short_description),
			category = COALESCE($5, category),
			price = COALESCE($6, price),
			image = COALESCE($7, image),
			images = COALESCE($8, images),
			author = COALESCE($9, author),
			author_id = COALESCE($10, author_id),
			rating = COALESCE($11, rating),
			downloads = COALESCE($12, downloads),
			is_featured = COALESCE($13, is_featured),
			tags = COALESCE($14, tags),
			license_type = COALESCE($15, license_type),
			download_url = COALESCE($16, download_url),
			file_size = COALESCE($17, file_size),
			version = COALESCE($18, version)
		WHERE id = $1
		RETURNING ` + productColumns

	product, err := scanProduct(q.QueryRowContext(ctx, query, id,
		p.Title, p.Description, p.ShortDescription, p.Category, p.Price, p.Image, arrayArg(p.Images),
		p.Author, p.AuthorID, p.Rating, p.Downloads, p.IsFeatured, arrayArg(p.Tags), p.LicenseType,
		p.DownloadURL, p.FileSize, p.Version,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("update product: %w", err)
	}

	return product, nil
}

func DeleteProduct(ctx context.Context, q database.Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return database.ErrProductInUse
		}
		return fmt.Errorf("delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}

func ListProducts(ctx context.Context, q database.Querier, filter ProductFilter, page, pageSize int) (*OffsetPage, error) {
	where := `WHERE ($1::text = '' OR category = $1::text)
		  AND ($2::boolean IS NULL OR is_featured = $2::boolean)
		  AND ($3::text = '' OR title ILIKE '%' || $3::text || '%' OR description ILIKE '%' || $3::text || '%')`
	search := strings.TrimSpace(filter.Query)

	var total int64
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM products `+where,
		filter.Category, filter.Featured, search).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + productColumns + `
		FROM products
		` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5`

	rows, err := q.QueryContext(ctx, query, filter.Category, filter.Featured, search, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return newOffsetPage(products, total, page, pageSize), nil
}

func ListCategories(ctx context.Context, q database.Querier) ([]models.Category, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT category, COUNT(*)
		FROM products
		GROUP BY category
		ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.Name, &c.ProductCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}
