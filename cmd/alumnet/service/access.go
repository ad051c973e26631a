package service

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/alumnet/alumnet/common/config"
	"github.com/alumnet/alumnet/common/logger"
)

// ConnectionChecker answers whether two members hold an accepted edge.
type ConnectionChecker interface {
	AreConnected(ctx context.Context, a, b string) (bool, error)
}

// VerifiedReader reads the per-member verified flag.
type VerifiedReader interface {
	IsVerified(ctx context.Context, memberID string) (bool, error)
}

// AccessService gates downstream features on relationship state. Policies
// are CEL expressions over the pair's facts, compiled once at startup:
//
//	connected        both members hold an accepted edge
//	viewer_verified  the asking member is a verified alumnus
//	target_verified  the other member is a verified alumnus
type AccessService struct {
	connections ConnectionChecker
	flags       VerifiedReader
	log         *logger.Logger

	messagePolicy cel.Program
	contactPolicy cel.Program
}

func NewAccessService(connections ConnectionChecker, flags VerifiedReader, cfg config.AccessConfig, log *logger.Logger) (*AccessService, error) {
	env, err := cel.NewEnv(
		cel.Variable("connected", cel.BoolType),
		cel.Variable("viewer_verified", cel.BoolType),
		cel.Variable("target_verified", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("create policy env: %w", err)
	}

	messagePolicy, err := compilePolicy(env, cfg.MessagePolicy)
	if err != nil {
		return nil, fmt.Errorf("message policy: %w", err)
	}
	contactPolicy, err := compilePolicy(env, cfg.ContactDetailsPolicy)
	if err != nil {
		return nil, fmt.Errorf("contact details policy: %w", err)
	}

	return &AccessService{
		connections:   connections,
		flags:         flags,
		log:           log,
		messagePolicy: messagePolicy,
		contactPolicy: contactPolicy,
	}, nil
}

func compilePolicy(env *cel.Env, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("policy %q must evaluate to bool, got %s", expr, ast.OutputType())
	}
	return env.Program(ast)
}

// CanMessage reports whether viewer may open a message thread with target.
func (s *AccessService) CanMessage(ctx context.Context, viewerID, targetID string) (bool, error) {
	return s.evaluate(ctx, s.messagePolicy, viewerID, targetID)
}

// CanViewContactDetails reports whether viewer may see target's contact card.
func (s *AccessService) CanViewContactDetails(ctx context.Context, viewerID, targetID string) (bool, error) {
	return s.evaluate(ctx, s.contactPolicy, viewerID, targetID)
}

func (s *AccessService) evaluate(ctx context.Context, policy cel.Program, viewerID, targetID string) (bool, error) {
	if viewerID == targetID {
		return false, ErrSelfRequest
	}

	connected, err := s.connections.AreConnected(ctx, viewerID, targetID)
	if err != nil {
		return false, err
	}
	viewerVerified, err := s.flags.IsVerified(ctx, viewerID)
	if err != nil {
		return false, err
	}
	targetVerified, err := s.flags.IsVerified(ctx, targetID)
	if err != nil {
		return false, err
	}

	out, _, err := policy.Eval(map[string]interface{}{
		"connected":       connected,
		"viewer_verified": viewerVerified,
		"target_verified": targetVerified,
	})
	if err != nil {
		return false, fmt.Errorf("policy evaluation: %w", err)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("policy did not return boolean, got %T", out.Value())
	}
	return allowed, nil
}
