package main

import (
	"flag"
	"fmt"
	"log"

	"srcds-admin/internal/config"
	"srcds-admin/internal/models"
	"srcds-admin/internal/storage"

	"gorm.io/gorm"
)

// restriction tables, without the configured prefix
var tables = []string{
	"banned_steamid",
	"banned_ip_address",
	"blocked_chat_steamid",
	"blocked_voice_steamid",
}

func main() {
	// Define command line flags
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	action := flag.String("action", "migrate", "Action to perform (migrate, reset, status)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	if err := storage.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	db := storage.GetDB()
	if db == nil {
		log.Fatalf("Failed to get database connection")
	}

	prefix := cfg.Database.TablePrefix

	// Perform requested action
	switch *action {
	case "migrate":
		if err := migrateDatabase(db, prefix); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migration completed successfully")
	case "reset":
		if err := resetDatabase(db, prefix); err != nil {
			log.Fatalf("Reset failed: %v", err)
		}
		log.Println("Database reset completed successfully")
	case "status":
		if err := checkStatus(db, prefix); err != nil {
			log.Fatalf("Status check failed: %v", err)
		}
	default:
		log.Fatalf("Unknown action: %s", *action)
	}
}

// migrateDatabase creates or updates the restriction tables
func migrateDatabase(db *gorm.DB, prefix string) error {
	fmt.Println("Migrating database...")

	for _, table := range tables {
		if err := db.Table(prefix + table).AutoMigrate(&models.Restriction{}); err != nil {
			return fmt.Errorf("failed to migrate table %s: %w", prefix+table, err)
		}
	}

	return nil
}

// resetDatabase drops the restriction tables and recreates them
func resetDatabase(db *gorm.DB, prefix string) error {
	fmt.Println("Resetting database...")

	// Confirm reset operation
	fmt.Print("WARNING: This will delete all data! Are you sure? (y/N): ")
	var confirmation string
	fmt.Scanln(&confirmation)

	if confirmation != "y" && confirmation != "Y" {
		return fmt.Errorf("operation cancelled by user")
	}

	for _, table := range tables {
		if err := db.Migrator().DropTable(prefix + table); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", prefix+table, err)
		}
	}

	// Recreate tables
	return migrateDatabase(db, prefix)
}

// checkStatus reports which restriction tables exist and their sizes
func checkStatus(db *gorm.DB, prefix string) error {
	fmt.Println("Checking database status...")

	for _, table := range tables {
		name := prefix + table
		if db.Migrator().HasTable(name) {
			var count int64
			db.Table(name).Count(&count)
			fmt.Printf("table %s exists, %d records\n", name, count)
		} else {
			fmt.Printf("table %s does not exist\n", name)
		}
	}

	return nil
}
