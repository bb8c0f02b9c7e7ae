// Command seed-db loads the embedded store fixture (categories, customers,
// products) into PostgreSQL and registers API keys for the seeded customers.
// Safe to run repeatedly: every statement upserts.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/checkout-service/db"
	"github.com/xenking/checkout-service/internal/repository"
)

type fixture struct {
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	Customers []struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"customers"`
	Products []struct {
		Name     string          `json:"name"`
		Price    decimal.Decimal `json:"price"`
		Category string          `json:"category"`
	} `json:"products"`
}

func main() {
	var (
		databaseURL string
		apiKey      string
		adminKey    string
		pepper      string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "orders-scoped API key for the first seeded customer (or CHECKOUT_SEED_API_KEY env)")
	flag.StringVar(&adminKey, "admin-key", "", "admin-scoped API key for the first seeded customer (optional)")
	flag.StringVar(&pepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or CHECKOUT_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("CHECKOUT_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or CHECKOUT_SEED_API_KEY")
		os.Exit(1)
	}
	if pepper == "" {
		pepper = os.Getenv("CHECKOUT_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKey, adminKey, pepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, apiKey, adminKey, pepper string) error {
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

	var fx fixture
	if err := json.Unmarshal(db.SeedFixture, &fx); err != nil {
		return errors.Wrap(err, "parse store fixture")
	}

	categoryIDs, err := seedCategories(ctx, pool, fx)
	if err != nil {
		return errors.Wrap(err, "seed categories")
	}

	customerIDs, err := seedCustomers(ctx, pool, fx)
	if err != nil {
		return errors.Wrap(err, "seed customers")
	}

	if err := seedProducts(ctx, pool, fx, categoryIDs); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if len(customerIDs) == 0 {
		return errors.New("fixture has no customers to bind API keys to")
	}
	owner := customerIDs[fx.Customers[0].Email]

	if err := seedAPIKey(ctx, pool, apiKey, pepper, owner, "Default test key", []string{"orders"}); err != nil {
		return errors.Wrap(err, "seed api key")
	}
	if adminKey != "" {
		if err := seedAPIKey(ctx, pool, adminKey, pepper, owner, "Admin key", []string{"orders", "admin"}); err != nil {
			return errors.Wrap(err, "seed admin api key")
		}
	}

	return nil
}

func seedCategories(ctx context.Context, pool *pgxpool.Pool, fx fixture) (map[string]string, error) {
	slog.Info("upserting categories", slog.Int("count", len(fx.Categories)))

	ids := make(map[string]string, len(fx.Categories))
	for _, c := range fx.Categories {
		var id string
		err := pool.QueryRow(ctx, `
			INSERT INTO categories (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, c.Name,
		).Scan(&id)
		if err != nil {
			return nil, errors.Wrapf(err, "upsert category %s", c.Name)
		}
		ids[c.Name] = id

		slog.Info("upserted category", slog.String("id", id), slog.String("name", c.Name))
	}
	return ids, nil
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool, fx fixture) (map[string]string, error) {
	slog.Info("upserting customers", slog.Int("count", len(fx.Customers)))

	ids := make(map[string]string, len(fx.Customers))
	for _, c := range fx.Customers {
		var id string
		err := pool.QueryRow(ctx, `
			INSERT INTO customers (name, email) VALUES ($1, $2)
			ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, c.Name, c.Email,
		).Scan(&id)
		if err != nil {
			return nil, errors.Wrapf(err, "upsert customer %s", c.Email)
		}
		ids[c.Email] = id

		slog.Info("upserted customer", slog.String("id", id), slog.String("email", c.Email))
	}
	return ids, nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, fx fixture, categories map[string]string) error {
	slog.Info("upserting products", slog.Int("count", len(fx.Products)))

	for _, p := range fx.Products {
		categoryID, ok := categories[p.Category]
		if !ok {
			return errors.Errorf("product %q references unknown category %q", p.Name, p.Category)
		}

		// Products have no natural unique key, so match by name and only
		// insert when absent.
		_, err := pool.Exec(ctx, `
			INSERT INTO products (name, price, category_id)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (SELECT 1 FROM products WHERE name = $1)`,
			p.Name, p.Price, categoryID,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert product %s", p.Name)
		}

		slog.Info("upserted product", slog.String("name", p.Name), slog.String("price", p.Price.String()))
	}
	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, key, pepper, customerID, name string, scopes []string) error {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(key))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	_, err := pool.Exec(ctx, `
		INSERT INTO api_keys (key_hash, customer_id, name, scopes, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (key_hash) DO UPDATE
		SET customer_id = EXCLUDED.customer_id,
		    name        = EXCLUDED.name,
		    scopes      = EXCLUDED.scopes,
		    active      = TRUE`,
		keyHash, customerID, name, scopes,
	)
	if err != nil {
		return errors.Wrapf(err, "upsert API key %s", name)
	}

	slog.Info("upserted API key", slog.String("name", name))
	return nil
}
