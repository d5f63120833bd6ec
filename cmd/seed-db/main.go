package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kawanestudio/storefront/internal/repository"
)

type sizeJSON struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

type productJSON struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	SKU               string           `json:"sku"`
	Description       string           `json:"description"`
	Price             decimal.Decimal  `json:"price"`
	CompareAtPrice    *decimal.Decimal `json:"compareAtPrice"`
	Stock             int              `json:"stock"`
	Category          string           `json:"category"`
	LowStockThreshold int              `json:"lowStockThreshold"`
	Sizes             []sizeJSON       `json:"sizes"`
}

type dealJSON struct {
	Title      string          `json:"title"`
	Type       string          `json:"type"`
	Value      decimal.Decimal `json:"value"`
	Status     string          `json:"status"`
	StartsAt   time.Time       `json:"startsAt"`
	EndsAt     time.Time       `json:"endsAt"`
	ProductIDs []string        `json:"productIds"`
}

const (
	upsertProductSQL = `INSERT INTO products (id, name, sku, description, price, compare_at_price, stock, category, low_stock_threshold)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, sku = EXCLUDED.sku, description = EXCLUDED.description,
			price = EXCLUDED.price, compare_at_price = EXCLUDED.compare_at_price,
			stock = EXCLUDED.stock, category = EXCLUDED.category,
			low_stock_threshold = EXCLUDED.low_stock_threshold`

	upsertSizeSQL = `INSERT INTO product_sizes (product_id, size, stock)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, size) DO UPDATE SET stock = EXCLUDED.stock`

	insertDealSQL = `INSERT INTO deals (title, deal_type, value, status, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	linkDealProductSQL = `INSERT INTO deal_products (deal_id, product_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`

	upsertUserSQL = `INSERT INTO users (id, name, email, phone)
		VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`

	upsertAddressSQL = `INSERT INTO addresses (id, user_id, recipient, street, city, province, postal_code, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING`
)

func main() {
	var (
		databaseURL  string
		productsFile string
		dealsFile    string
		demoData     bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&dealsFile, "deals-file", "", "path to deals JSON file (optional)")
	flag.BoolVar(&demoData, "demo", false, "seed a demo user and address")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, dealsFile, demoData); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, dealsFile string, demoData bool) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if dealsFile != "" {
		if err := seedDeals(ctx, pool, dealsFile); err != nil {
			return errors.Wrap(err, "seed deals")
		}
	}

	if demoData {
		if err := seedDemoUser(ctx, pool); err != nil {
			return errors.Wrap(err, "seed demo user")
		}
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		threshold := p.LowStockThreshold
		if threshold == 0 {
			threshold = 5
		}
		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Name, p.SKU, p.Description, p.Price, p.CompareAtPrice,
			p.Stock, p.Category, threshold,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		for _, s := range p.Sizes {
			if _, err := pool.Exec(ctx, upsertSizeSQL, p.ID, s.Size, s.Stock); err != nil {
				return errors.Wrapf(err, "upsert size %s/%s", p.ID, s.Size)
			}
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedDeals(ctx context.Context, pool *pgxpool.Pool, dealsFile string) error {
	slog.Info("reading deals file", slog.String("path", dealsFile))

	data, err := os.ReadFile(dealsFile)
	if err != nil {
		return errors.Wrap(err, "read deals file")
	}

	var deals []dealJSON
	if err := json.Unmarshal(data, &deals); err != nil {
		return errors.Wrap(err, "parse deals JSON")
	}

	slog.Info("inserting deals", slog.Int("count", len(deals)))

	for _, d := range deals {
		status := d.Status
		if status == "" {
			status = "SCHEDULED"
		}

		var dealID int64
		err := pool.QueryRow(ctx, insertDealSQL,
			d.Title, d.Type, d.Value, status, d.StartsAt, d.EndsAt,
		).Scan(&dealID)
		if err != nil {
			return errors.Wrapf(err, "insert deal %q", d.Title)
		}

		for _, productID := range d.ProductIDs {
			if _, err := pool.Exec(ctx, linkDealProductSQL, dealID, productID); err != nil {
				return errors.Wrapf(err, "link deal %d to product %s", dealID, productID)
			}
		}

		slog.Info("inserted deal", slog.Int64("id", dealID), slog.String("title", d.Title))
	}

	return nil
}

func seedDemoUser(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo user and address")

	if _, err := pool.Exec(ctx, upsertUserSQL,
		"demo-user", "Demo Customer", "demo@example.com", "6281200000000",
	); err != nil {
		return errors.Wrap(err, "upsert demo user")
	}
	if _, err := pool.Exec(ctx, upsertAddressSQL,
		"demo-address", "demo-user", "Demo Customer",
		"Jl. Contoh 1", "Bandung", "Jawa Barat", "40111", "6281200000000",
	); err != nil {
		return errors.Wrap(err, "upsert demo address")
	}

	return nil
}
