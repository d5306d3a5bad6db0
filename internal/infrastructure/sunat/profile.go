// Package sunat submits fiscal documents to the government-invoicing
// providers: payload mapping, two-provider failover and response
// normalization. Validation lives in the fiscal domain package and runs
// here before any network call.
package sunat

import (
	"strings"
	"time"
)

// Kind identifies which provider produced a request or response shape.
type Kind string

const (
	KindPrimary   Kind = "primary"
	KindSecondary Kind = "secondary"
)

// Profile is the read-only configuration of one provider. Profiles are
// built once at process start and never mutated; concurrent submissions
// read them without synchronization.
type Profile struct {
	BaseURL string
	Path    string
	Timeout time.Duration

	// Primary authenticates with credentials embedded in the payload.
	User     string
	Password string

	// Secondary authenticates with a bearer token.
	Token string
}

// Usable reports whether the profile is configured well enough to attempt
// a submission. The secondary is considered unusable until a token is set.
func (p Profile) Usable() bool {
	if p.BaseURL == "" {
		return false
	}
	return p.User != "" || p.Token != ""
}

// Endpoint returns the full submission URL.
func (p Profile) Endpoint() string {
	return strings.TrimRight(p.BaseURL, "/") + p.Path
}

// Profiles holds the provider pair. Primary must be usable; secondary is
// attempted only when usable.
type Profiles struct {
	Primary   Profile
	Secondary Profile
}
