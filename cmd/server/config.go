package main

import (
	"os"
	"strings"
)

type config struct {
	Port          string
	Environment   string
	AppName       string
	BaseURL       string
	JWTSecret     string
	EmailBaseURL  string
	EmailAPIKey   string
	EmailFrom     string
	WebhookSecret string
}

func loadConfig() config {
	return config{
		Port:          envStrDefault("SERVICE_PORT", "8080"),
		Environment:   envStrDefault("ENVIRONMENT", "development"),
		AppName:       envStrDefault("APP_NAME", "CERTIA"),
		BaseURL:       strings.TrimRight(envStrDefault("APP_URL", "http://localhost:8080"), "/"),
		JWTSecret:     strings.TrimSpace(os.Getenv("JWT_SECRET")),
		EmailBaseURL:  envStrDefault("EMAIL_API_URL", "https://api.resend.com"),
		EmailAPIKey:   strings.TrimSpace(os.Getenv("RESEND_API_KEY")),
		EmailFrom:     envStrDefault("EMAIL_FROM", "CERTIA <no-reply@certia.app>"),
		WebhookSecret: strings.TrimSpace(os.Getenv("SIGNING_WEBHOOK_SECRET")),
	}
}

func envStrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
