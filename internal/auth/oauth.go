package auth

import (
	"fmt"

	"golang.org/x/oauth2"
)

// Strava OAuth endpoint
var Endpoint = oauth2.Endpoint{
	AuthURL:  "https://www.strava.com/oauth/authorize",
	TokenURL: "https://www.strava.com/oauth/token",
}

// Strava takes one comma-separated scope string
const scope = "read,activity:read_all"

// Credentials are the API application's client id and secret.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// NewOAuthConfig builds the oauth2 config for a local callback on port.
func NewOAuthConfig(creds Credentials, port int) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     Endpoint,
		RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", port),
		Scopes:       []string{scope},
	}
}

// Session is the result of a completed login.
type Session struct {
	Token     *oauth2.Token
	AthleteID int64
}

// AthleteIDFromToken reads the athlete id Strava embeds in the token response.
func AthleteIDFromToken(token *oauth2.Token) int64 {
	athlete, ok := token.Extra("athlete").(map[string]any)
	if !ok {
		return 0
	}
	switch id := athlete["id"].(type) {
	case float64:
		return int64(id)
	case int64:
		return id
	}
	return 0
}
