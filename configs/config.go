package configs

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port                 string
	MongoURI             string
	DBName               string
	JWTSecret            string
	TokenTTLHours        int
	ReminderSweepMinutes int
}

func LoadConfig() Config {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, using environment variables")
	}

	var tokenTTLHours, reminderSweepMinutes int

	fmt.Sscanf(os.Getenv("TOKEN_TTL_HOURS"), "%d", &tokenTTLHours)
	fmt.Sscanf(os.Getenv("REMINDER_SWEEP_MINUTES"), "%d", &reminderSweepMinutes)

	if tokenTTLHours == 0 {
		tokenTTLHours = 24
	}
	if reminderSweepMinutes == 0 {
		reminderSweepMinutes = 30
	}

	cfg := Config{
		Port:                 os.Getenv("PORT"),
		MongoURI:             os.Getenv("MONGO_URI"),
		DBName:               os.Getenv("DB_NAME"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		TokenTTLHours:        tokenTTLHours,
		ReminderSweepMinutes: reminderSweepMinutes,
	}

	if cfg.Port == "" {
		cfg.Port = "3000"
	}
	if cfg.MongoURI == "" {
		cfg.MongoURI = "mongodb://localhost:27017"
	}
	if cfg.DBName == "" {
		cfg.DBName = "library"
	}

	return cfg
}
