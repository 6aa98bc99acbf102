package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

var googleEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.google.com/o/oauth2/auth",
	TokenURL: "https://oauth2.googleapis.com/token",
}

// Google is the standards-compliant adapter: the oauth2 package drives the
// published endpoints, and the ID token arrives in the token response.
type Google struct {
	conf        *oauth2.Config
	client      *http.Client
	userInfoURL string
}

func NewGoogle(clientID, clientSecret, redirectURL string) *Google {
	return &Google{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     googleEndpoint,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
		},
		client:      &http.Client{Timeout: 10 * time.Second},
		userInfoURL: googleUserInfoURL,
	}
}

func (g *Google) Name() string { return "google" }

func (g *Google) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

func (g *Google) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google token exchange: %v: %w", err, ErrProvider)
	}

	idToken, _ := tok.Extra("id_token").(string)
	return &TokenSet{
		AccessToken:   tok.AccessToken,
		IdentityToken: idToken,
	}, nil
}

func (g *Google) FetchProfile(ctx context.Context, tokens *TokenSet) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request: %v: %w", err, ErrProvider)
	}
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %v: %w", err, ErrProvider)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned status %d: %w", resp.StatusCode, ErrProvider)
	}

	var info struct {
		Sub     string `json:"sub"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("google userinfo decode: %v: %w", err, ErrProvider)
	}

	return &Profile{
		ID:    info.Sub,
		Name:  info.Name,
		Email: info.Email,
		Image: info.Picture,
	}, nil
}
