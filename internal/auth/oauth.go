package auth

import (
	"fmt"

	"golang.org/x/oauth2"
)

const (
	// intervals.icu OAuth endpoints
	AuthURL  = "https://intervals.icu/oauth/authorize"
	TokenURL = "https://intervals.icu/api/oauth/token"
)

// Scopes required for sync (intervals.icu uses comma-separated scopes)
var Scopes = []string{
	"ACTIVITY:READ,WELLNESS:READ",
}

// Config holds the OAuth client credentials
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "http://localhost:8089/callback"
}

// NewOAuthConfig creates an oauth2.Config from our Config
func NewOAuthConfig(cfg Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   AuthURL,
			TokenURL:  TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: cfg.RedirectURL,
		Scopes:      Scopes,
	}
}

// AuthResult contains the token and athlete info from successful auth
type AuthResult struct {
	Token       *oauth2.Token
	AthleteID   string
	AthleteName string
}

// ExtractAthlete reads the athlete that intervals.icu returns alongside the
// access token. The ID is empty when the response carries none.
func ExtractAthlete(token *oauth2.Token) (id, name string) {
	athlete, ok := token.Extra("athlete").(map[string]any)
	if !ok {
		return "", ""
	}
	switch v := athlete["id"].(type) {
	case string:
		id = v
	case float64:
		id = fmt.Sprintf("i%.0f", v)
	}
	name, _ = athlete["name"].(string)
	return id, name
}
