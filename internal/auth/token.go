// Daylight Gateway - Daylight Simulation Orchestration Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/daylight-gateway

package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// TokenValidator accepts a single shared bearer secret.
type TokenValidator struct {
	secret []byte
	hash   []byte
}

// NewTokenValidator creates a token validator. A bcrypt hash takes
// precedence over a plain secret.
func NewTokenValidator(secret, hash string) (*TokenValidator, error) {
	if secret == "" && hash == "" {
		return nil, errors.New("token auth requires API_TOKEN or API_TOKEN_HASH")
	}
	v := &TokenValidator{}
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, errors.New("API_TOKEN_HASH is not a bcrypt hash")
		}
		v.hash = []byte(hash)
	} else {
		v.secret = []byte(secret)
	}
	return v, nil
}

// Mode implements Validator.
func (v *TokenValidator) Mode() Mode { return ModeToken }

// KeySet implements Validator.
func (v *TokenValidator) KeySet() *KeySet { return nil }

// Validate implements Validator.
func (v *TokenValidator) Validate(r *http.Request) (*Principal, error) {
	token, err := BearerToken(r)
	if err != nil {
		return nil, err
	}

	if v.hash != nil {
		if bcrypt.CompareHashAndPassword(v.hash, []byte(token)) != nil {
			return nil, ErrInvalidToken
		}
	} else if subtle.ConstantTimeCompare(v.secret, []byte(token)) != 1 {
		return nil, ErrInvalidToken
	}
	return &Principal{Subject: "api-token", Mode: ModeToken}, nil
}
