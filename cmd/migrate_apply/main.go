package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"scamfeed/internal/db"
	"scamfeed/internal/logger"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations (default lists them)")
	flag.Parse()

	names, err := db.Migrations()
	if err != nil {
		logger.Fatal("read migrations", "error", err)
	}
	if !*apply {
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	pool := db.Connect(dsn)
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		logger.Fatal("migration failed", "error", err)
	}
	fmt.Printf("applied %d migrations\n", len(names))
}
