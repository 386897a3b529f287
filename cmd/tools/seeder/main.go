package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer conn.Close(ctx)

	if err := conn.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedInventory(ctx, conn)
	seedClients(ctx, conn)
	seedDiscounts(ctx, conn)

	log.Println("Seeding completed successfully!")
}

func seedInventory(ctx context.Context, conn *pgx.Conn) {
	items := []struct {
		Name            string
		Category        string
		PricePerDay     int64
		ReplacementCost int64
		Stock           int
	}{
		{"Canon EOS R5 Body", "camera", 450000, 65000000, 4},
		{"Sony A7 IV Body", "camera", 350000, 42000000, 6},
		{"Canon RF 24-70mm f/2.8", "lens", 200000, 38000000, 5},
		{"Sony FE 70-200mm f/2.8 GM", "lens", 250000, 45000000, 3},
		{"DJI Ronin RS3 Pro", "stabilizer", 150000, 12000000, 8},
		{"DJI Mavic 3 Pro", "drone", 500000, 32000000, 2},
		{"Godox AD600 Pro", "lighting", 120000, 14000000, 10},
		{"Aputure 600d", "lighting", 200000, 28000000, 4},
		{"Manfrotto 055 Tripod", "support", 50000, 4500000, 15},
		{"Zoom H6 Recorder", "audio", 75000, 5500000, 7},
		{"Sennheiser MKH 416", "audio", 100000, 18000000, 5},
		{"Atomos Ninja V", "monitor", 90000, 9000000, 6},
	}

	fmt.Println("Seeding Inventory...")
	for _, it := range items {
		_, err := conn.Exec(ctx, `
			INSERT INTO inventory_items (name, category, price_per_day, replacement_cost, stock)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT DO NOTHING;
		`, it.Name, it.Category, it.PricePerDay, it.ReplacementCost, it.Stock)
		if err != nil {
			log.Printf("Failed to seed item %s: %v", it.Name, err)
		}
	}
}

func seedClients(ctx context.Context, conn *pgx.Conn) {
	clients := []struct {
		FirstName string
		LastName  string
		Phone     string
		Email     string
	}{
		{"Budi", "Santoso", "08123456789", "budi@example.com"},
		{"Siti", "Aminah", "08129876543", "siti@example.com"},
		{"Andi", "Pratama", "08121112222", "andi@example.com"},
		{"Dewi", "Lestari", "08123334444", "dewi@example.com"},
		{"Eko", "Kurniawan", "08125556666", "eko@example.com"},
		{"Gita", "Pertiwi", "08127778888", "gita@example.com"},
	}

	fmt.Println("Seeding Clients...")
	for _, c := range clients {
		_, err := conn.Exec(ctx, `
			INSERT INTO clients (first_name, last_name, phone, email)
			SELECT $1, $2, $3, $4
			WHERE NOT EXISTS (SELECT 1 FROM clients WHERE email = $4);
		`, c.FirstName, c.LastName, c.Phone, c.Email)
		if err != nil {
			log.Printf("Failed to seed client %s: %v", c.Email, err)
		}
	}
}

func seedDiscounts(ctx context.Context, conn *pgx.Conn) {
	discounts := []struct {
		Name     string
		Code     string
		Kind     string
		Value    int64
		Duration string
	}{
		{"Opening promo", "OPENING10", "percentage", 10, "period"},
		{"New client", "WELCOME50", "fixed", 50000, "one_time"},
		{"Loyal renter", "LANGGANAN", "fixed", 25000, "unlimited"},
	}

	fmt.Println("Seeding Discounts...")
	for _, d := range discounts {
		_, err := conn.Exec(ctx, `
			INSERT INTO discounts (name, code, kind, value, duration, starts_at, ends_at, active)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW() + INTERVAL '1 year', TRUE)
			ON CONFLICT (code) DO NOTHING;
		`, d.Name, d.Code, d.Kind, d.Value, d.Duration)
		if err != nil {
			log.Printf("Failed to seed discount %s: %v", d.Code, err)
		}
	}
}
