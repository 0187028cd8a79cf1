// Command sheets-check verifies Google Sheets credentials without starting the
// server: it builds a client from the environment and fetches the spreadsheet
// metadata once.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	gsheet "budgetbook/internal/sheets/google"
)

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		log.Fatalf("initialize sheets client: %v", err)
	}

	title, err := client.Ping(ctx)
	if err != nil {
		log.Fatalf("spreadsheet access check failed: %v", err)
	}

	fmt.Printf("Credentials OK. Spreadsheet: %q\n", title)
}
