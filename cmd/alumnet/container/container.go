package container

import (
	"context"
	"fmt"

	"github.com/alumnet/alumnet/cmd/alumnet/repository"
	"github.com/alumnet/alumnet/cmd/alumnet/service"
	"github.com/alumnet/alumnet/common/bootstrap"
	"github.com/alumnet/alumnet/common/cache"
	"github.com/alumnet/alumnet/common/clients"
	"github.com/alumnet/alumnet/common/notify"
	"github.com/alumnet/alumnet/common/ratelimit"
	"github.com/alumnet/alumnet/common/validation"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components

	// Repositories
	ConnectionRepo   *repository.ConnectionRepository
	CodeRepo         *repository.VerificationCodeRepository
	ReviewRepo       *repository.VerificationRequestRepository
	VerificationRepo *repository.MemberVerificationRepository
	RosterRepo       *repository.RosterRepository

	// Services
	RosterIndex         *service.RosterIndex
	ConnectionService   *service.ConnectionService
	VerificationService *service.VerificationService
	AccessService       *service.AccessService

	// Rate limiter is nil when disabled or Redis is unavailable
	RateLimiter *ratelimit.RateLimiter
}

// NewContainer initializes all repositories and services once
func NewContainer(ctx context.Context, components *bootstrap.Components) (*Container, error) {
	cfg := components.Config
	log := components.Logger

	// Repositories
	connectionRepo := repository.NewConnectionRepository(components.DB)
	codeRepo := repository.NewVerificationCodeRepository(components.DB)
	reviewRepo := repository.NewVerificationRequestRepository(components.DB)
	verificationRepo := repository.NewMemberVerificationRepository(components.DB)
	rosterRepo := repository.NewRosterRepository(components.DB)

	// Roster snapshot is loaded at startup so match requests never block on
	// the database. An empty roster is legal; every claim escalates.
	rosterIndex := service.NewRosterIndex(rosterRepo, log)
	if err := rosterIndex.Reload(ctx); err != nil {
		return nil, fmt.Errorf("load roster snapshot: %w", err)
	}

	validator := validation.NewClaimValidator()
	directoryClient := clients.NewMemberDirectoryClient(
		cfg.Collaborators.MemberDirectoryURL,
		cfg.Collaborators.MemberDirectoryTimeout,
		log,
	)
	memberDirectory := clients.NewCachedMemberDirectory(
		directoryClient,
		cache.NewMemoryCache(log),
		cfg.Collaborators.MemberCacheTTL,
		log,
	)

	connectionService := service.NewConnectionService(
		connectionRepo,
		memberDirectory,
		validator,
		log,
		cfg.Connections.MaxMessageLength,
		cfg.Connections.DefaultPageSize,
		cfg.Connections.MaxPageSize,
	)

	// Redis-backed candidate window and admin notifications when available,
	// in-process fallbacks otherwise.
	var candidateStore service.CandidateStore
	var notifier notify.Notifier
	var limiter *ratelimit.RateLimiter
	if components.Redis != nil {
		candidateStore = service.NewRedisCandidateStore(components.Redis, cfg.Verification.CandidateTTL)
		notifier = notify.NewRedisNotifier(components.Redis, cfg.Verification.AdminChannel)
		if cfg.RateLimit.Enabled {
			limiter = ratelimit.NewRateLimiter(components.Redis.GetUnderlying(), log)
		}
	} else {
		candidateStore = service.NewMemoryCandidateStore(cfg.Verification.CandidateTTL)
		notifier = notify.NewMemoryNotifier()
	}

	matcher := service.NewMatcher(cfg.Verification.MatchFloor, cfg.Verification.MaxCandidates)
	verificationService := service.NewVerificationService(
		codeRepo,
		reviewRepo,
		verificationRepo,
		rosterIndex,
		matcher,
		candidateStore,
		notifier,
		validator,
		log,
		cfg.Verification.CodeLength,
		cfg.Verification.CodeTTL,
	)

	accessService, err := service.NewAccessService(connectionRepo, verificationRepo, cfg.Access, log)
	if err != nil {
		return nil, fmt.Errorf("initialize access policies: %w", err)
	}

	return &Container{
		Components:          components,
		ConnectionRepo:      connectionRepo,
		CodeRepo:            codeRepo,
		ReviewRepo:          reviewRepo,
		VerificationRepo:    verificationRepo,
		RosterRepo:          rosterRepo,
		RosterIndex:         rosterIndex,
		ConnectionService:   connectionService,
		VerificationService: verificationService,
		AccessService:       accessService,
		RateLimiter:         limiter,
	}, nil
}
