package grpc

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"slotbook/internal/domain"
	"slotbook/internal/identity"
)

type tokenVerifier interface {
	Verify(token string) (domain.Party, error)
}

type limiter interface {
	Allow(key string) bool
}

const defaultRequestTimeout = 10 * time.Second

var mutatingMethods = map[string]bool{
	fullMethod("GenerateSlots"): true,
	fullMethod("BookSlot"):      true,
	fullMethod("CancelBooking"): true,
}

// TimeoutInterceptor bounds requests that arrive without a deadline.
func TimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

// AuthInterceptor verifies the bearer token on every booking RPC and stores
// the party in the context. Other services (health) pass through.
func AuthInterceptor(v tokenVerifier, log *slog.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "grpc.auth"))
	prefix := "/" + ServiceName + "/"

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return handler(ctx, req)
		}

		token, err := identity.BearerToken(authorization(ctx))
		if err != nil {
			log.Info("unauthenticated request", slog.String("rpc", info.FullMethod), slog.Any("err", err))
			return nil, status.Error(codes.Unauthenticated, "authentication required")
		}
		party, err := v.Verify(token)
		if err != nil {
			log.Info("token rejected", slog.String("rpc", info.FullMethod), slog.Any("err", err))
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}
		return handler(identity.WithParty(ctx, party), req)
	}
}

// RateLimitInterceptor throttles mutating RPCs per authenticated party.
func RateLimitInterceptor(l limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !mutatingMethods[info.FullMethod] {
			return handler(ctx, req)
		}
		party, ok := identity.PartyFrom(ctx)
		if ok && !l.Allow(party.ID) {
			return nil, status.Error(codes.ResourceExhausted, "Too many requests. Please try again later.")
		}
		return handler(ctx, req)
	}
}

func authorization(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
