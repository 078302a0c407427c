// sendgrid-stub serves an in-memory copy of the SendGrid suppression
// API for rehearsing removal runs locally. All data lives in memory
// and is gone on exit.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/support-toolkit/internal/sendgrid"
	"github.com/ignite/support-toolkit/internal/stubapi"
)

func main() {
	var (
		port   = flag.String("port", "8825", "listen port")
		apiKey = flag.String("api-key", "stub-key", "bearer key requests must carry")
		seed   = flag.String("seed", "", "comma-separated addresses to pre-suppress on every list")
	)
	flag.Parse()

	fmt.Println("=========================================================")
	fmt.Println(" SendGrid Suppression API Stub — local testing only")
	fmt.Println(" All responses come from an in-memory store.")
	fmt.Println("=========================================================")

	store := stubapi.NewStore()
	if *seed != "" {
		for _, email := range strings.Split(*seed, ",") {
			email = strings.TrimSpace(email)
			if email == "" {
				continue
			}
			for _, kind := range sendgrid.AllKinds() {
				store.Add(kind, email, "seeded")
			}
			fmt.Printf("Seeded %s on every list\n", email)
		}
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + *port,
		Handler:      stubapi.NewServer(store, *apiKey).Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Listening on :%s (api key %q)\n", *port, *apiKey)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "FATAL: server error: %v\n", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: forced shutdown: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Stopped.")
}
