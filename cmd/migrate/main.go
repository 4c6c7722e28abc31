package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"pollbox/config"
	"pollbox/pkg/database"
)

const usage = `
Pollbox - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Run schema migrations
  status      Show database connection status
  seed        Seed the main admin account and sample questions
  reset       Drop all tables and re-run migrations (DANGEROUS)
  truncate    Truncate all tables (DANGEROUS)

Flags:
  -admin-email string  Admin email for seeding (default "admin@pollbox.local")
  -admin-pass string   Admin password for seeding (default "Admin@123!")
  -no-questions        Skip creating sample questions when seeding

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go seed
  go run cmd/migrate/main.go reset
`

func main() {
	adminEmail := flag.String("admin-email", "admin@pollbox.local", "Admin email for seeding")
	adminPass := flag.String("admin-pass", "Admin@123!", "Admin password for seeding")
	noQuestions := flag.Bool("no-questions", false, "Skip creating sample questions when seeding")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	database.Connect(cfg)
	defer database.Close()

	switch command {
	case "up":
		runMigrationsUp()
	case "status":
		showStatus()
	case "seed":
		runSeed(*adminEmail, *adminPass, !*noQuestions)
	case "reset":
		runReset()
	case "truncate":
		runTruncate()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp() {
	log.Println("🚀 Running migrations...")

	if err := database.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Migrations completed successfully!")
}

func showStatus() {
	log.Println("🔍 Checking database status...")

	if err := database.Ping(); err != nil {
		log.Fatalf("❌ Database connection failed: %v", err)
	}
	log.Println("✅ Database connection: OK")

	tables := []string{"users", "profiles", "sessions", "questions", "choices", "user_votes", "poll_statuses"}
	for _, table := range tables {
		exists, err := database.TableExists(table)
		if err != nil {
			log.Printf("⚠️  Error checking table %s: %v", table, err)
			continue
		}
		if exists {
			count, _ := database.TableCount(table)
			log.Printf("✅ Table %-15s exists (%d rows)", table, count)
		} else {
			log.Printf("❌ Table %-15s does not exist", table)
		}
	}
}

func runSeed(adminEmail, adminPass string, createQuestions bool) {
	log.Println("🌱 Seeding database...")

	result, err := database.Seed(&database.SeedConfig{
		AdminEmail:      adminEmail,
		AdminPassword:   adminPass,
		AdminName:       "Main Admin",
		CreateQuestions: createQuestions,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✅ Admin user created/verified: %s (ID: %s)", adminEmail, result.AdminUser.ID)
	if len(result.Questions) > 0 {
		log.Printf("✅ Sample questions created: %d", len(result.Questions))
	}
	log.Println("✅ Seeding completed!")
}

func runReset() {
	log.Println("⚠️  WARNING: This will DROP all tables and re-run migrations!")

	log.Println("🗑️  Dropping all tables...")
	if err := database.DropAllTables(); err != nil {
		log.Fatalf("❌ Failed to drop tables: %v", err)
	}

	log.Println("🚀 Running migrations...")
	if err := database.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	log.Println("✅ Database reset completed!")
}

func runTruncate() {
	log.Println("⚠️  WARNING: This will TRUNCATE all tables!")

	if err := database.TruncateAllTables(); err != nil {
		log.Fatalf("❌ Truncate failed: %v", err)
	}

	log.Println("✅ All tables truncated!")
}
