package authgate

import (
	"net/http"
	"strings"
	"time"
)

// SessionCookies renders a session bundle as the access/refresh cookie pair.
// The access cookie value keeps the "Bearer " transport prefix so the same
// string works in an Authorization header; [Engine.Validate] and
// [TokenFromCookie] both strip it. Both cookies are HttpOnly; max-ages follow
// the configured token lifetimes.
func (e *Engine) SessionCookies(result *LoginResult) []*http.Cookie {
	cfg := e.config.Cookies
	return []*http.Cookie{
		{
			Name:     cfg.AccessName,
			Value:    bearerPrefix + result.AccessToken,
			Path:     cfg.Path,
			Domain:   cfg.Domain,
			MaxAge:   int(e.config.Tokens.AccessTTL / time.Second),
			Secure:   cfg.Secure,
			HttpOnly: true,
			SameSite: cfg.SameSite,
		},
		{
			Name:     cfg.RefreshName,
			Value:    result.RefreshToken,
			Path:     cfg.Path,
			Domain:   cfg.Domain,
			MaxAge:   int(e.config.Refresh.TTL / time.Second),
			Secure:   cfg.Secure,
			HttpOnly: true,
			SameSite: cfg.SameSite,
		},
	}
}

// ClearSessionCookies returns expired cookies that remove the pair written by
// [SessionCookies]. Use on logout.
func (e *Engine) ClearSessionCookies() []*http.Cookie {
	cfg := e.config.Cookies
	expire := func(name string) *http.Cookie {
		return &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     cfg.Path,
			Domain:   cfg.Domain,
			MaxAge:   -1,
			Secure:   cfg.Secure,
			HttpOnly: true,
			SameSite: cfg.SameSite,
		}
	}
	return []*http.Cookie{expire(cfg.AccessName), expire(cfg.RefreshName)}
}

// TokenFromCookie reads the access cookie off a request and strips the
// "Bearer " prefix. Empty string when the cookie is absent.
func (e *Engine) TokenFromCookie(r *http.Request) string {
	c, err := r.Cookie(e.config.Cookies.AccessName)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(c.Value, bearerPrefix)
}
