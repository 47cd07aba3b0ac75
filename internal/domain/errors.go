package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Auction / round errors
var (
	// ErrAuctionNotFound is returned when no auction matches the given criteria.
	ErrAuctionNotFound = errors.New("auction not found")

	// ErrLotNotFound is returned when no auction lot matches the given criteria.
	ErrLotNotFound = errors.New("auction lot not found")

	// ErrLotSettled is returned when a lot that is already sold or unsold is
	// put up for a new round.
	ErrLotSettled = errors.New("auction lot is already settled")

	// ErrRoundInProgress is returned when a round start is attempted while
	// another round is live for the same auction. The live round is untouched.
	ErrRoundInProgress = errors.New("a round is already in progress for this auction")

	// ErrNoLiveRound is returned when a round-scoped operation arrives for an
	// auction with no live round.
	ErrNoLiveRound = errors.New("no live round for this auction")

	// ErrBidRejected marks a bid attempt that failed admission. By design the
	// reason is not broken out further: a dropped bid is simply not reflected
	// in state.
	ErrBidRejected = errors.New("bid rejected")
)

// Team / player errors
var (
	// ErrTeamNotFound is returned when no team matches the given criteria.
	ErrTeamNotFound = errors.New("team not found")

	// ErrTeamNotApproved is returned when an unapproved team attempts a
	// round-scoped action.
	ErrTeamNotApproved = errors.New("team is not approved for bidding")

	// ErrTeamNameTaken is returned when a team profile reuses an existing name.
	ErrTeamNameTaken = errors.New("team name is already taken")

	// ErrInsufficientBudget is returned when a team's remaining purse cannot
	// cover the attempted amount.
	ErrInsufficientBudget = errors.New("insufficient team budget")

	// ErrPlayerNotFound is returned when no player matches the given criteria.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrInvalidPlayerRole is returned when the role is not a recognised
	// discipline.
	ErrInvalidPlayerRole = errors.New("invalid player role")
)

// User errors
var (
	// ErrUserNotFound is returned when no user matches the given criteria.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned on registration when the email already exists.
	ErrEmailTaken = errors.New("email address is already registered")

	// ErrUsernameTaken is returned on registration when the username already exists.
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrInvalidCredentials is returned when login credentials are wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserInactive is returned when a suspended user attempts an action.
	ErrUserInactive = errors.New("user account is inactive")
)

// Auth errors
var (
	// ErrUnauthorized is returned when a valid token is not present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the authenticated user lacks the required role.
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrTokenExpired is returned when a JWT has passed its TTL.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid is returned when a token cannot be parsed or its
	// signature does not match.
	ErrTokenInvalid = errors.New("token is invalid")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// notFoundErrors collects all "entity not found" sentinel errors so that
// IsNotFound can stay in sync automatically.
var notFoundErrors = []error{
	ErrAuctionNotFound,
	ErrLotNotFound,
	ErrTeamNotFound,
	ErrPlayerNotFound,
	ErrUserNotFound,
	ErrNoLiveRound,
}

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors. Use this instead of comparing error values
// directly when translating domain errors to HTTP 404 responses.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors that represent a state conflict (e.g.
// double round start or re-settling a lot).
func IsConflict(err error) bool {
	conflictErrors := []error{
		ErrRoundInProgress,
		ErrLotSettled,
		ErrTeamNameTaken,
		ErrEmailTaken,
		ErrUsernameTaken,
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthError returns true for authentication/authorisation errors.
func IsAuthError(err error) bool {
	authErrors := []error{
		ErrUnauthorized,
		ErrForbidden,
		ErrTokenExpired,
		ErrTokenInvalid,
		ErrInvalidCredentials,
	}
	for _, target := range authErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
