// Command sendmail submits the stored cart as an order mail once.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"example.com/framed-prints/internal/infra/mail"
	"example.com/framed-prints/internal/infra/persistence"
	orderuc "example.com/framed-prints/internal/usecase/order"
	"example.com/framed-prints/pkg/config"
	"example.com/framed-prints/pkg/logger"
	"example.com/framed-prints/pkg/shutdown"
)

func main() {
	cfg := config.Load()

	smtpAddr := flag.String("smtp", cfg.SMTPAddr, "SMTP relay address")
	to := flag.String("to", cfg.OrderRecipient, "order recipient")
	from := flag.String("from", cfg.OrderSender, "order sender")
	clearCart := flag.Bool("clear", false, "empty the cart after a successful submission")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	zl, err := logger.New(logger.Options{Service: "sendmail", Env: cfg.AppEnv, Level: cfg.LogLevel})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	store, err := persistence.Open(ctx, cfg.StoreDriver, cfg.StoreDSN, zl)
	if err != nil {
		zl.Fatal("open store", zap.Error(err))
	}
	defer store.Close()

	svc := orderuc.NewService(store.Repo, mail.NewSMTPMailer(*smtpAddr, nil, zl), orderuc.Options{
		Sender:    *from,
		Recipient: *to,
	}, zl)

	summary, err := svc.Submit(ctx)
	if err != nil {
		zl.Error("order not sent", zap.Error(err))
		os.Exit(1)
	}

	if *clearCart {
		if err := store.Repo.Clear(ctx); err != nil {
			zl.Error("order sent but cart not cleared", zap.Error(err))
			os.Exit(1)
		}
	}

	fmt.Printf("Order %s sent to %s: %d prints, total %d\n",
		summary.Reference, *to, summary.TotalQuantity, summary.TotalPrice)
}
