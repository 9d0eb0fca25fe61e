package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/k-lohani/ruthieAI/internal/app"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "careworker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	patientID, err := uuid.Parse(strings.TrimSpace(os.Getenv("PATIENT_ID")))
	if err != nil {
		return fmt.Errorf("PATIENT_ID must be a valid uuid: %w", err)
	}
	phoneNumber := strings.TrimSpace(os.Getenv("PHONE_NUMBER"))
	if phoneNumber == "" {
		return fmt.Errorf("PHONE_NUMBER is required")
	}

	a, err := app.New()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := a.Pipeline.Run(ctx, patientID, phoneNumber)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !result.Success {
		return fmt.Errorf("wellness check failed: %s", result.Cause)
	}
	return nil
}
