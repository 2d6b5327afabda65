package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/kwikdrytn/kwikdry-sub000/cmd"
	"github.com/kwikdrytn/kwikdry-sub000/infra/logger"
)

func main() {
	// .env is optional
	_ = godotenv.Load()
	if err := cmd.Execute(); err != nil {
		logger.New("main").Errorf("%v", err)
		os.Exit(1)
	}
}
