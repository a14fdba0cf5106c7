package notify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrProviderUnknown is returned when no contact can be derived for a specialist.
var ErrProviderUnknown = errors.New("notify: provider contact unknown")

// ProviderContact is where a specialist receives booking alerts.
type ProviderContact struct {
	Email string
	Name  string
}

// ProviderDirectory resolves a specialist id to a contact.
type ProviderDirectory interface {
	ResolveProviderContact(ctx context.Context, specialistID string) (ProviderContact, error)
}

var unsafeLocalPart = regexp.MustCompile(`[^a-z0-9._-]+`)

// SynthesizedDirectory derives "dr.<specialist_id>@<domain>". It is a
// placeholder until a real provider directory exists; the address may not
// be deliverable.
type SynthesizedDirectory struct {
	Domain string
}

func (d SynthesizedDirectory) ResolveProviderContact(ctx context.Context, specialistID string) (ProviderContact, error) {
	local := unsafeLocalPart.ReplaceAllString(strings.ToLower(strings.TrimSpace(specialistID)), "-")
	local = strings.Trim(local, "-.")
	if local == "" || d.Domain == "" {
		return ProviderContact{}, fmt.Errorf("%w: %q", ErrProviderUnknown, specialistID)
	}
	return ProviderContact{Email: fmt.Sprintf("dr.%s@%s", local, d.Domain)}, nil
}

// StaticDirectory maps known specialist ids to contacts and falls back to
// another directory for the rest.
type StaticDirectory struct {
	Contacts map[string]ProviderContact
	Fallback ProviderDirectory
}

func (d StaticDirectory) ResolveProviderContact(ctx context.Context, specialistID string) (ProviderContact, error) {
	if c, ok := d.Contacts[specialistID]; ok {
		return c, nil
	}
	if d.Fallback != nil {
		return d.Fallback.ResolveProviderContact(ctx, specialistID)
	}
	return ProviderContact{}, fmt.Errorf("%w: %q", ErrProviderUnknown, specialistID)
}
