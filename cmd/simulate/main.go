package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/storefront/internal/adapter/catalog"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/pkg/logger"
)

const (
	totalSessions = 200
	concurrency   = 50
	latencyScale  = 0.05
)

// cards cycles through a plain card and the forced-outcome test cards.
var cards = []string{
	"4242424242424242",
	"4242424242424242",
	"4242424242424242",
	"4000000000000002",
	"4000000000000069",
	"4000000000000127",
	"4000000000000119",
	"4000000000000259",
}

func main() {
	log, err := logger.New(logger.Options{Service: "simulate", Env: "dev", Level: "warn"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	products, err := catalog.NewStatic().ListProducts(ctx)
	if err != nil {
		log.Fatal("load catalog", zap.Error(err))
	}

	store := storage.NewMemoryStore()
	archiver := service.NewOrderArchiver(store, totalSessions, log)
	archiver.Start(4)

	payments := service.NewPaymentService(service.DefaultPaymentConfig().Scaled(latencyScale),
		service.WithPaymentLogger(log))

	var (
		mu       sync.Mutex
		outcomes = map[string]int{}
		revenue  atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	start := time.Now()

	for i := 0; i < totalSessions; i++ {
		g.Go(func() error {
			// Each session is one shopper with their own cart.
			notifications := service.NewNotificationCenter(nil)
			defer notifications.ClearAll()

			cart := service.NewCartService(nil, notifications, nil)
			checkout := service.NewCheckoutService(cart, payments, notifications,
				service.WithOrderRepository(archiver))

			if _, err := cart.AddItem(gctx, products[i%len(products)], 1); err != nil {
				return fmt.Errorf("session %d: add item: %w", i, err)
			}

			outcome := "OK"
			conf, err := checkout.Checkout(gctx, sessionForm(i))
			if err != nil {
				var payErr *service.PaymentError
				if !errors.As(err, &payErr) {
					return fmt.Errorf("session %d: %w", i, err)
				}
				outcome = string(payErr.Code)
			} else {
				revenue.Add(conf.Total.Shift(2).IntPart())
			}

			mu.Lock()
			outcomes[outcome]++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatal("simulation aborted", zap.Error(err))
	}
	elapsed := time.Since(start)
	archiver.Close()

	keys := make([]string, 0, len(outcomes))
	for k := range outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("========== CHECKOUT SIMULATION ==========")
	fmt.Printf("Sessions:         %d\n", totalSessions)
	fmt.Printf("Concurrency:      %d\n", concurrency)
	fmt.Printf("Duration:         %v\n", elapsed)
	for _, k := range keys {
		fmt.Printf("%-18s%d\n", k+":", outcomes[k])
	}
	fmt.Printf("Revenue:          $%.2f\n", float64(revenue.Load())/100)
	fmt.Printf("Archived orders:  %d\n", store.OrderCount())
	fmt.Println("==========================================")

	if store.OrderCount() != outcomes["OK"] {
		fmt.Printf("FAIL: expected %d archived orders, got %d\n", outcomes["OK"], store.OrderCount())
		os.Exit(1)
	}
	fmt.Println("PASS: every approved checkout was archived")
}

func sessionForm(i int) domain.CheckoutForm {
	return domain.CheckoutForm{
		Shipping: domain.ShippingAddress{
			FirstName: "Cliente", LastName: fmt.Sprintf("Numero %d", i),
			Email: fmt.Sprintf("cliente%d@example.com", i), Phone: "5550001111",
			Address: "Avenida Siempre Viva 742", City: "Springfield",
			State: "OR", ZipCode: "97403", Country: "US",
		},
		Payment: domain.PaymentForm{
			Method: domain.MethodCreditCard, CardNumber: cards[i%len(cards)], CardType: domain.CardVisa,
			ExpiryMonth: 12, ExpiryYear: time.Now().Year() + 3, CVV: "123", CardHolderName: "Cliente Simulado",
		},
		AgreeToTerms: true,
	}
}
