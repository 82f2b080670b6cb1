package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"BrentPulse/internal/di"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analytics API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Printf("env=%s source=%s symbol=%s", cfg.Environment, cfg.Source.Type, cfg.Source.Symbol)

	// Wire DI: Initialize all dependencies
	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	defer cleanup()

	if cfg.Kafka.Enabled() {
		log.Printf("kafka: brokers=%v phases=%s", cfg.Kafka.Brokers, cfg.Kafka.PhaseTopic)
	}

	// Run application (blocks until signal)
	return app.Run()
}
