// Package google obtains a Google ID token for the DormHop backend by
// driving the consent page in a real browser and catching the redirect.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// ErrNoIDToken is returned when Google's token response lacks an id_token.
var ErrNoIDToken = errors.New("google sign-in: token response has no id_token")

// Config holds the OAuth client registration and browser settings.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	ChromeBin    string
	Timeout      time.Duration
}

// SignIn runs the interactive Google sign-in.
type SignIn struct {
	oauth     *oauth2.Config
	chromeBin string
	timeout   time.Duration
	logger    *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *SignIn {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &SignIn{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     googleoauth.Endpoint,
		},
		chromeBin: cfg.ChromeBin,
		timeout:   timeout,
		logger:    logger,
	}
}

// AuthCodeURL is the consent page for state.
func (s *SignIn) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// IDToken opens the consent page, waits for the user to finish, and
// exchanges the authorization code for a Google ID token.
func (s *SignIn) IDToken(ctx context.Context) (string, error) {
	state := uuid.NewString()
	code, err := s.captureCode(ctx, state)
	if err != nil {
		return "", err
	}
	return s.exchange(ctx, code)
}

func (s *SignIn) exchange(ctx context.Context, code string) (string, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("google sign-in: exchange code: %w", err)
	}
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return "", ErrNoIDToken
	}
	return idToken, nil
}

type redirectResult struct {
	code string
	err  error
}

func (s *SignIn) captureCode(ctx context.Context, state string) (string, error) {
	chromeBin := findChromeBinary(s.chromeBin)
	s.logger.Info("Opening browser for Google sign-in", zap.String("browser", chromeBin))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	ctx, cancelTimeout := context.WithTimeout(ctx, s.timeout)
	defer cancelTimeout()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	results := make(chan redirectResult, 1)
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		e, ok := ev.(*network.EventRequestWillBeSent)
		if !ok {
			return
		}
		code, matched, err := CodeFromRedirect(e.Request.URL, s.oauth.RedirectURL, state)
		if !matched {
			return
		}
		select {
		case results <- redirectResult{code: code, err: err}:
		default:
		}
	})

	if err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(s.AuthCodeURL(state)),
	); err != nil {
		return "", fmt.Errorf("google sign-in: open consent page: %w", err)
	}

	select {
	case r := <-results:
		if r.err != nil {
			return "", r.err
		}
		s.logger.Debug("Captured Google authorization code")
		return r.code, nil
	case <-ctx.Done():
		return "", fmt.Errorf("google sign-in: waiting for consent: %w", ctx.Err())
	}
}

// CodeFromRedirect checks whether location is the OAuth redirect and, if
// so, extracts the authorization code. matched is false for any other URL.
func CodeFromRedirect(location, redirectURL, state string) (code string, matched bool, err error) {
	got, err := url.Parse(location)
	if err != nil {
		return "", false, nil
	}
	want, err := url.Parse(redirectURL)
	if err != nil {
		return "", false, fmt.Errorf("google sign-in: bad redirect url: %w", err)
	}
	if got.Scheme != want.Scheme || got.Host != want.Host || got.Path != want.Path {
		return "", false, nil
	}

	q := got.Query()
	if e := q.Get("error"); e != "" {
		return "", true, fmt.Errorf("google sign-in: %s", e)
	}
	if q.Get("state") != state {
		return "", true, errors.New("google sign-in: state mismatch")
	}
	code = q.Get("code")
	if code == "" {
		return "", true, errors.New("google sign-in: redirect has no code")
	}
	return code, true, nil
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
