// Command sweeper cancels stale unconfirmed orders. It is meant to be run on
// an external schedule (cron) rather than scheduling itself:
//
//	sweeper -days 7            # cancel PENDING orders older than 7 days
//	sweeper -days 7 -dry-run   # report candidates without mutating anything
//
// Exit code 0 on success, 1 on fatal error.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"

	"github.com/ec-kata/checkout/internal/adapter/storage"
	"github.com/ec-kata/checkout/internal/core/service"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report candidates without cancelling")
	days := flag.Int("days", 7, "expiration threshold in days")
	flag.Parse()

	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/checkout?parseTime=true"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	store := storage.NewMySQLStore(db)
	orders := service.NewOrderService(store, nil, 0)

	cutoff := time.Now().AddDate(0, 0, -*days)
	mode := ""
	if *dryRun {
		mode = "[dry run] "
	}
	log.Printf("%ssweeping PENDING orders created before %s", mode, cutoff.Format(time.RFC3339))

	result, err := orders.SweepExpired(ctx, cutoff, *dryRun)
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	if len(result.Orders) == 0 {
		log.Println("no expired orders found")
		return
	}

	for _, order := range result.Orders {
		log.Printf("%sorder %s user=%s total=%s created=%s",
			mode, order.ID, order.UserID, order.TotalAmount.StringFixed(2),
			order.CreatedAt.Format(time.RFC3339))
	}

	if *dryRun {
		log.Printf("[dry run] %d order(s) would be cancelled", result.Count)
		return
	}
	log.Printf("cancelled %d order(s)", result.Count)
}
