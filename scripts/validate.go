package main

import (
	"flag"

	"eventhive/internal/logger"
	"eventhive/internal/validation"
)

func main() {
	var baseURL string
	flag.StringVar(&baseURL, "url", "http://localhost:8081", "Base URL for API validation")
	flag.Parse()

	logger.Init("info", "text", "eventhive-validate")

	validator := validation.NewAPIValidator(baseURL)
	if err := validator.ValidateAll(); err != nil {
		logger.Fatal("Validation failed", "error", err)
	}
}
