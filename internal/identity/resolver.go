package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/edcraft/mentoring-engine/internal/cache"
	"github.com/edcraft/mentoring-engine/internal/repositories"
)

// UnknownStudentError signals a submission whose anonymized student id cannot
// be reversed to a username.
type UnknownStudentError struct {
	StudentID string `json:"student_id"`
}

func (ue *UnknownStudentError) Error() string {
	return fmt.Sprintf("unknown student: anonymized id %s cannot be resolved", ue.StudentID)
}

// IsUnknownStudent checks if error represents an unreversible student id
func IsUnknownStudent(err error) bool {
	var ue *UnknownStudentError
	return errors.As(err, &ue)
}

// Resolver reverses anonymized student ids to display usernames.
type Resolver interface {
	UsernameOf(ctx context.Context, anonymizedID string) (string, error)
}

const usernameCacheTTL = time.Hour

// CasdoorResolver resolves usernames through the local anonymized-id map and
// the Casdoor identity provider, with a redis cache in front.
type CasdoorResolver struct {
	users  repositories.UserRepository
	client *casdoorsdk.Client
	cache  cache.CacheService
	logger *slog.Logger
}

func NewCasdoorResolver(users repositories.UserRepository, client *casdoorsdk.Client, cacheService cache.CacheService, logger *slog.Logger) *CasdoorResolver {
	return &CasdoorResolver{
		users:  users,
		client: client,
		cache:  cacheService,
		logger: logger,
	}
}

func (r *CasdoorResolver) UsernameOf(ctx context.Context, anonymizedID string) (string, error) {
	cacheKey := "username:" + anonymizedID

	var username string
	if r.cache != nil {
		if err := r.cache.Get(ctx, cacheKey, &username); err == nil {
			return username, nil
		}
	}

	entry, err := r.users.ByAnonymizedID(ctx, anonymizedID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", &UnknownStudentError{StudentID: anonymizedID}
		}
		return "", fmt.Errorf("failed to look up anonymized id %s: %w", anonymizedID, err)
	}

	username = entry.Username
	if r.client != nil {
		user, err := r.client.GetUser(entry.CasdoorName)
		if err != nil || user == nil {
			// The local map keeps the last known username; good enough when
			// the identity provider is unreachable.
			r.logger.Warn("Casdoor lookup failed, using stored username",
				"casdoor_name", entry.CasdoorName,
				"error", err)
		} else {
			username = user.Name
		}
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, cacheKey, username, usernameCacheTTL); err != nil {
			r.logger.Warn("Failed to cache username", "anonymized_id", anonymizedID, "error", err)
		}
	}
	return username, nil
}
