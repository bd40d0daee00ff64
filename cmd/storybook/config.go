package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	endpoint         string
	paymentEndpoint  string
	notifyEndpoint   string
	dsn              string
	logLevel         string
	env              string
	authSecretKey    string
	paymentSecretKey string
	reservationTTL   time.Duration
	draftTTL         time.Duration
	revisionLimit    int
}

func generateRandomString(length int) string {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return base64.StdEncoding.EncodeToString(b)
}

func NewConfig() Config {
	var (
		endpoint        string
		paymentEndpoint string
		notifyEndpoint  string
		dsn             string
	)

	flag.StringVar(&endpoint, "a", "localhost:8090", "address and port to run server")
	flag.StringVar(&paymentEndpoint, "p", "http://localhost:8080", "address of the payment processor")
	flag.StringVar(&notifyEndpoint, "n", "http://localhost:8081", "address of the notification dispatcher")
	flag.StringVar(&dsn, "d", "", "data source name for database connection")
	flag.Parse()

	if address := os.Getenv("RUN_ADDRESS"); address != "" {
		endpoint = address
	}

	if paymentAddress := os.Getenv("PAYMENT_SYSTEM_ADDRESS"); paymentAddress != "" {
		paymentEndpoint = paymentAddress
	}

	if notifyAddress := os.Getenv("NOTIFY_SYSTEM_ADDRESS"); notifyAddress != "" {
		notifyEndpoint = notifyAddress
	}

	if d := os.Getenv("DATABASE_URI"); d != "" {
		dsn = d
	}

	logLevel := "error"
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		logLevel = l
	}

	env := "production"
	if e := os.Getenv("ENV"); e != "" {
		env = e
	}

	authSecretKey := os.Getenv("AUTH_SECRET_KEY")
	if authSecretKey == "" {
		if env == "production" {
			authSecretKey = generateRandomString(10)
			log.Printf("WARNING: AUTH_SECRET_KEY has to be defined for production environment\n")
		} else {
			authSecretKey = "development-key"
		}
	}

	paymentSecretKey := os.Getenv("PAYMENT_SECRET_KEY")
	if paymentSecretKey == "" {
		if env == "production" {
			paymentSecretKey = generateRandomString(10)
			log.Printf("WARNING: PAYMENT_SECRET_KEY has to be defined for production environment\n")
		} else {
			paymentSecretKey = "development-key"
		}
	}

	reservationTTL := 30 * time.Minute
	if ttl := os.Getenv("RESERVATION_TTL"); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			log.Printf("WARNING: RESERVATION_TTL is not a valid duration, using default\n")
		} else {
			reservationTTL = parsed
		}
	}

	draftTTL := 24 * time.Hour
	if ttl := os.Getenv("DRAFT_TTL"); ttl != "" {
		parsed, err := time.ParseDuration(ttl)
		if err != nil {
			log.Printf("WARNING: DRAFT_TTL is not a valid duration, using default\n")
		} else {
			draftTTL = parsed
		}
	}

	revisionLimit := 2
	if limit := os.Getenv("REVISION_LIMIT"); limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil || parsed < 0 {
			log.Printf("WARNING: REVISION_LIMIT is not a valid number, using default\n")
		} else {
			revisionLimit = parsed
		}
	}

	return Config{
		endpoint,
		paymentEndpoint,
		notifyEndpoint,
		dsn,
		logLevel,
		env,
		authSecretKey,
		paymentSecretKey,
		reservationTTL,
		draftTTL,
		revisionLimit,
	}
}
