// promo-import bulk-loads promo codes from gzipped marketing exports. Each
// line of each file is one code; files are scanned concurrently, codes are
// deduplicated in memory, and inserts go out in batches.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/kawanestudio/storefront/internal/repository"
)

const (
	minCodeLen = 4
	maxCodeLen = 32
	batchSize  = 1000
)

const upsertPromoSQL = `INSERT INTO promo_codes (code, promo_type, value, description, valid_from, valid_until, max_uses)
	VALUES ($1, $2, $3, $4, NULL, NULL, $5)
	ON CONFLICT (code) DO UPDATE SET
		promo_type = EXCLUDED.promo_type, value = EXCLUDED.value,
		description = EXCLUDED.description, max_uses = EXCLUDED.max_uses,
		active = TRUE`

func main() {
	var (
		dataDir     string
		databaseURL string
		promoType   string
		value       string
		description string
		maxUses     int
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.gz code exports")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&promoType, "type", "percentage", "promo type for imported codes (percentage|fixed)")
	flag.StringVar(&value, "value", "10", "promo value for imported codes")
	flag.StringVar(&description, "description", "Imported promo code", "description for imported codes")
	flag.IntVar(&maxUses, "max-uses", 1, "per-code usage limit (0 = unlimited)")
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

	if err := run(ctx, dataDir, databaseURL, promoType, value, description, maxUses); err != nil {
		slog.Error("promo import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL, promoType, rawValue, description string, maxUses int) error {
	value, err := decimal.NewFromString(rawValue)
	if err != nil {
		return errors.Wrapf(err, "parse value %q", rawValue)
	}
	if promoType != "percentage" && promoType != "fixed" {
		return errors.Errorf("unsupported promo type %q", promoType)
	}

	files, err := filepath.Glob(filepath.Join(dataDir, "*.gz"))
	if err != nil {
		return errors.Wrap(err, "list export files")
	}
	if len(files) == 0 {
		return errors.Errorf("no .gz files found in %s", dataDir)
	}

	slog.Info("scanning exports", slog.Int("files", len(files)))

	codes, err := collectCodes(ctx, files)
	if err != nil {
		return errors.Wrap(err, "collect codes")
	}

	slog.Info("unique codes found", slog.Int("count", len(codes)))
	if len(codes) == 0 {
		return nil
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	return writePromoCodes(ctx, pool, codes, promoType, value, description, maxUses)
}

// collectCodes streams every file concurrently and merges codes into one
// deduplicated set.
func collectCodes(ctx context.Context, files []string) ([]string, error) {
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, path := range files {
		g.Go(func() error {
			local := make(map[string]struct{})
			if err := streamGzFile(ctx, path, func(code string) {
				if len(code) >= minCodeLen && len(code) <= maxCodeLen {
					local[code] = struct{}{}
				}
			}); err != nil {
				return errors.Wrapf(err, "scan %s", path)
			}

			slog.Info("scanned export", slog.String("file", path), slog.Int("codes", len(local)))

			mu.Lock()
			for code := range local {
				seen[code] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(seen))
	for code := range seen {
		codes = append(codes, code)
	}
	return codes, nil
}

// streamGzFile opens a gzip-compressed file and calls fn for each
// upper-cased, trimmed line.
func streamGzFile(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "create gzip reader for %s", path)
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(strings.ToUpper(strings.TrimSpace(scanner.Text())))
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrapf(err, "scan %s", path)
	}

	return nil
}

// writePromoCodes upserts codes in batches.
func writePromoCodes(
	ctx context.Context,
	pool *pgxpool.Pool,
	codes []string,
	promoType string,
	value decimal.Decimal,
	description string,
	maxUses int,
) error {
	slog.Info("writing promo codes", slog.Int("count", len(codes)))

	for start := 0; start < len(codes); start += batchSize {
		end := min(start+batchSize, len(codes))

		batch := &pgx.Batch{}
		for _, code := range codes[start:end] {
			batch.Queue(upsertPromoSQL, code, promoType, value, description, maxUses)
		}
		if err := pool.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrapf(err, "write batch at offset %d", start)
		}

		slog.Info("write progress", slog.Int("written", end), slog.Int("total", len(codes)))
	}

	return nil
}
