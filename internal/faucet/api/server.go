// Copyright 2025 The kaspafaucet Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package api implements the faucet's public HTTP surface. It translates
// transport input into claim/status calls and maps outcome errors onto HTTP
// status codes and JSON bodies. Response bodies never carry node endpoints,
// key material or internal error strings.
package api

import (
	"context"
	_ "embed"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"kaspafaucet/internal/faucet/claim"
	"kaspafaucet/internal/faucet/telemetry"
	"kaspafaucet/internal/faucet/treasury"
)

//go:embed static/index.html
var indexHTML []byte

// ClaimService is the processor surface the server depends on.
type ClaimService interface {
	Process(ctx context.Context, identity, address string) (*claim.Receipt, error)
}

// StatusService is the reporter surface the server depends on.
type StatusService interface {
	Status(ctx context.Context, identity string) (*claim.Status, error)
}

// Options carries the server's transport knobs.
type Options struct {
	// BehindProxy trusts proxy headers (X-Forwarded-For / X-Real-IP) for
	// requester identity instead of the socket peer address.
	BehindProxy bool
	// StaticDir, when non-empty, is served under /static.
	StaticDir string
}

// Server is the faucet HTTP server.
type Server struct {
	echo      *echo.Echo
	processor ClaimService
	reporter  StatusService
	opts      Options
	log       *zap.SugaredLogger
}

// JSON models. Field names are a stable contract: the seeder scripts read
// faucet_address from /status, and balance_kas/amount_kas carry decimal
// sompi strings like the original deployment did.
type statusResponse struct {
	Active           bool   `json:"active"`
	FaucetAddress    string `json:"faucet_address"`
	BalanceKas       string `json:"balance_kas"`
	NextClaimSeconds uint64 `json:"next_claim_seconds"`
}

type claimRequest struct {
	Address string `json:"address"`
}

type claimResponse struct {
	TransactionID    string `json:"transaction_id"`
	AmountKas        string `json:"amount_kas"`
	NextClaimSeconds uint64 `json:"next_claim_seconds"`
}

type errorResponse struct {
	Error             string `json:"error"`
	RetryAfterSeconds uint64 `json:"retry_after_seconds,omitempty"`
}

// NewServer wires routes onto a fresh echo instance.
func NewServer(processor ClaimService, reporter StatusService, opts Options, log *zap.SugaredLogger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.CORS())

	s := &Server{echo: e, processor: processor, reporter: reporter, opts: opts, log: log}

	e.GET("/", s.handleIndex)
	e.GET("/status", s.handleStatus)
	e.POST("/claim", s.handleClaim)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	if opts.StaticDir != "" {
		e.Static("/static", opts.StaticDir)
	}
	return s
}

// Start listens on addr and blocks until the server stops.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexHTML)
}

func (s *Server) handleStatus(c echo.Context) error {
	status, err := s.reporter.Status(c.Request().Context(), s.requesterIdentity(c))
	if err != nil {
		s.log.Errorw("status unavailable", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "faucet temporarily unavailable"})
	}
	return c.JSON(http.StatusOK, statusResponse{
		Active:           status.Active,
		FaucetAddress:    status.FaucetAddress,
		BalanceKas:       strconv.FormatUint(status.Balance, 10),
		NextClaimSeconds: ceilSeconds(status.NextClaim),
	})
}

func (s *Server) handleClaim(c echo.Context) error {
	started := time.Now()

	var request claimRequest
	if err := c.Bind(&request); err != nil || request.Address == "" {
		telemetry.RecordClaim(telemetry.OutcomeBadRequest, time.Since(started))
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "request body must be JSON with an address field"})
	}

	identity := s.requesterIdentity(c)
	s.log.Infow("claim request", "identity", identity, "address", request.Address)

	receipt, err := s.processor.Process(c.Request().Context(), identity, request.Address)
	if err != nil {
		return s.claimError(c, err, started)
	}

	telemetry.RecordClaim(telemetry.OutcomeSuccess, time.Since(started))
	return c.JSON(http.StatusOK, claimResponse{
		TransactionID:    receipt.TransactionID,
		AmountKas:        strconv.FormatUint(receipt.Amount, 10),
		NextClaimSeconds: uint64(receipt.NextClaim / time.Second),
	})
}

// claimError maps the outcome taxonomy to transport responses. Insufficient
// funds and node failures both surface as 500; the distinction stays in logs
// and metrics only.
func (s *Server) claimError(c echo.Context, err error, started time.Time) error {
	elapsed := time.Since(started)

	var rateLimited *claim.RateLimitedError
	switch {
	case errors.As(err, &rateLimited):
		telemetry.RecordClaim(telemetry.OutcomeRateLimited, elapsed)
		retryAfter := rateLimited.RetryAfterSeconds()
		c.Response().Header().Set("Retry-After", strconv.FormatUint(retryAfter, 10))
		return c.JSON(http.StatusTooManyRequests, errorResponse{
			Error:             "rate limited",
			RetryAfterSeconds: retryAfter,
		})
	case errors.Is(err, claim.ErrInvalidAddress):
		telemetry.RecordClaim(telemetry.OutcomeInvalidAddress, elapsed)
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid address"})
	case errors.Is(err, treasury.ErrInsufficientFunds):
		telemetry.RecordClaim(telemetry.OutcomeInsufficientFunds, elapsed)
		s.log.Errorw("claim failed, faucet out of funds", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "faucet is out of funds"})
	default:
		telemetry.RecordClaim(telemetry.OutcomeUnavailable, elapsed)
		s.log.Errorw("claim failed", "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "faucet temporarily unavailable"})
	}
}

// requesterIdentity extracts the rate-limiting key. Behind a proxy the
// forwarded client IP is used; otherwise the socket peer address, so a
// spoofable header cannot bypass the cooldown.
func (s *Server) requesterIdentity(c echo.Context) string {
	if s.opts.BehindProxy {
		return c.RealIP()
	}
	host, _, err := net.SplitHostPort(c.Request().RemoteAddr)
	if err != nil {
		return c.Request().RemoteAddr
	}
	return host
}

// ceilSeconds rounds a remaining wait up to whole seconds so a caller never
// retries a moment too early.
func ceilSeconds(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64((d + time.Second - 1) / time.Second)
}
