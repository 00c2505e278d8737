package utils

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const DEV_ENV_FILENAME = ".env.development"
const PROD_ENV_FILENAME = ".env.production"

func InitEnvironmentVariables(goEnv string) error {
	// Hosted environments inject variables directly and don't ship .env files
	if os.Getenv("ENV") == "production" {
		log.Info("Running in production environment")
		return nil
	}

	envFile := DEV_ENV_FILENAME
	if goEnv == "production" {
		envFile = PROD_ENV_FILENAME
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		log.Warnf("InitEnvironmentVariables: %s not found, using ambient environment", envFile)
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("InitEnvironmentVariables: failed to load %s file: %v", envFile, err)
	}

	return nil
}

func GetEnv(name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("GetEnv: $%s not set", name)
	}

	return value, nil
}
