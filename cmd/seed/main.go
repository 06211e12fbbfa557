// Command seed creates and populates the demo apple-store transactions
// table. Roughly half the rows are refunds with negative quantities, and
// two large forced refunds guarantee at least one product's total revenue
// goes negative, so the reflection engine's corrective path is exercisable
// end to end.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"querymind/internal/config"
)

const createTable = `
DROP TABLE IF EXISTS transactions;
CREATE TABLE transactions (
	id SERIAL PRIMARY KEY,
	product_id INTEGER,
	product_name TEXT,
	category TEXT,
	region TEXT,
	qty_sold INTEGER,
	unit_price DOUBLE PRECISION,
	revenue DOUBLE PRECISION,
	notes TEXT,
	ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

type product struct {
	id        int
	name      string
	category  string
	basePrice float64
}

var products = []product{
	{101, "iPhone 15 Pro", "Phone", 999},
	{201, "AirPods Pro", "Earbuds", 249},
	{301, "MacBook Air M3", "Laptop", 1299},
	{501, "Apple Watch Series 10", "Watch", 399},
}

var regions = []string{"North", "South", "East", "West"}

func main() {
	_ = godotenv.Load()

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(createTable); err != nil {
		log.Fatalf("failed to create transactions table: %v", err)
	}

	// Fixed seed keeps repeated seeding runs comparable.
	rng := rand.New(rand.NewSource(42))
	now := time.Now()

	insert := `INSERT INTO transactions
		(product_id, product_name, category, region, qty_sold, unit_price, revenue, notes, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for i := 0; i < 100; i++ {
		p := products[rng.Intn(len(products))]
		region := regions[rng.Intn(len(regions))]

		var qty int
		var note string
		if rng.Float64() < 0.5 {
			qty = -(3 + rng.Intn(13))
			note = "refund"
		} else {
			qty = 1 + rng.Intn(10)
			note = "sale"
		}
		unitPrice := round2(p.basePrice * (0.9 + 0.2*rng.Float64()))
		revenue := float64(qty) * unitPrice
		ts := now.AddDate(0, 0, -rng.Intn(61))

		if _, err := db.Exec(insert, p.id, p.name, p.category, region, qty, unitPrice, revenue, note, ts); err != nil {
			log.Fatalf("failed to insert transaction: %v", err)
		}
	}

	// Forced large refunds: guarantee negative total revenue for two
	// products regardless of the random draw.
	forced := []struct {
		p       product
		region  string
		qty     int
		price   float64
		revenue float64
	}{
		{products[2], "North", -100, 1300, -130000},
		{products[1], "North", -50, 250, -12500},
	}
	for _, f := range forced {
		if _, err := db.Exec(insert, f.p.id, f.p.name, f.p.category, f.region, f.qty, f.price, f.revenue, "refund", now); err != nil {
			log.Fatalf("failed to insert forced refund: %v", err)
		}
	}

	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM transactions"); err != nil {
		log.Fatalf("failed to count transactions: %v", err)
	}
	fmt.Printf("seeded %d transactions\n", count)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
