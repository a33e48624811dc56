package service

import (
	"context"
	"strings"

	"github.com/jvibeschool/chefcard/internal/domain"
)

// userStore is the slice of the user repository the quota service needs.
type userStore interface {
	UpsertLogin(ctx context.Context, email, name, picture string) (*domain.User, error)
	RecordUsage(ctx context.Context, email string) error
	CountToday(ctx context.Context, email string) (int64, error)
}

// QuotaStatus reports where an identity stands against the daily limit.
// Admins report -1 for limit and remaining, meaning unlimited.
type QuotaStatus struct {
	Email      string `json:"email"`
	IsAdmin    bool   `json:"is_admin"`
	TodayCount int64  `json:"today_count"`
	DailyLimit int64  `json:"daily_limit"`
	Remaining  int64  `json:"remaining"`
	CanUse     bool   `json:"can_use"`
}

// LoginResult is the account record plus quota standing returned at login.
type LoginResult struct {
	User  *domain.User `json:"user"`
	Quota QuotaStatus  `json:"quota"`
}

// UsageService enforces the daily generation quota. The limit is counted
// from an append-only ledger, so it reflects attempts, not successes, and
// survives deletes. Admin identities bypass the limit entirely.
type UsageService struct {
	users      userStore
	dailyLimit int64
	admins     map[string]bool
}

// NewUsageService creates a new UsageService.
// Parameters:
//   - users: user and ledger store.
//   - dailyLimit: generations allowed per identity per local day.
//   - adminEmails: identities exempt from the limit.
//
// Returns:
//   - *UsageService: quota service instance.
func NewUsageService(users userStore, dailyLimit int64, adminEmails []string) *UsageService {
	admins := make(map[string]bool, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			admins[email] = true
		}
	}
	return &UsageService{users: users, dailyLimit: dailyLimit, admins: admins}
}

// IsAdmin reports whether the identity is on the admin allow-list.
func (s *UsageService) IsAdmin(email string) bool {
	return s.admins[strings.ToLower(strings.TrimSpace(email))]
}

// Login records a login and returns the account plus quota standing.
func (s *UsageService) Login(ctx context.Context, email, name, picture string) (*LoginResult, error) {
	user, err := s.users.UpsertLogin(ctx, email, name, picture)
	if err != nil {
		return nil, err
	}
	status, err := s.Status(ctx, email)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Quota: *status}, nil
}

// Status returns the identity's current quota standing without consuming
// anything.
func (s *UsageService) Status(ctx context.Context, email string) (*QuotaStatus, error) {
	if s.IsAdmin(email) {
		return &QuotaStatus{
			Email:      email,
			IsAdmin:    true,
			DailyLimit: -1,
			Remaining:  -1,
			CanUse:     true,
		}, nil
	}

	count, err := s.users.CountToday(ctx, email)
	if err != nil {
		return nil, err
	}
	remaining := s.dailyLimit - count
	if remaining < 0 {
		remaining = 0
	}
	return &QuotaStatus{
		Email:      email,
		TodayCount: count,
		DailyLimit: s.dailyLimit,
		Remaining:  remaining,
		CanUse:     count < s.dailyLimit,
	}, nil
}

// Check reports whether the identity may generate right now. Same data as
// Status; kept as its own operation so callers gate before spending.
func (s *UsageService) Check(ctx context.Context, email string) (*QuotaStatus, error) {
	return s.Status(ctx, email)
}

// Increment appends one generation to the ledger and returns the updated
// standing. Admin usage is recorded too; it just never blocks them.
func (s *UsageService) Increment(ctx context.Context, email string) (*QuotaStatus, error) {
	if err := s.users.RecordUsage(ctx, email); err != nil {
		return nil, err
	}
	return s.Status(ctx, email)
}
