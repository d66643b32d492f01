package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ezystaff-backend/internal/model"
	"ezystaff-backend/internal/store"
)

// Permission is the user's answer to the notification prompt.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// PlatformSubscription is the handle the push platform issues for a device.
type PlatformSubscription struct {
	Endpoint string
	P256DH   string
	Auth     string
}

// Platform abstracts the device push facilities: background-agent
// registration, push subscription, and the notification permission prompt.
type Platform interface {
	Supported() bool
	RequestPermission(ctx context.Context) (Permission, error)
	RegisterAgent(ctx context.Context) error
	Subscribe(ctx context.Context, applicationServerKey string) (*PlatformSubscription, error)
	GetSubscription(ctx context.Context) (*PlatformSubscription, error)
	Unsubscribe(ctx context.Context) error
}

// SubscribeOutcome is the terminal state of one Subscribe attempt.
type SubscribeOutcome string

const (
	OutcomeSubscribed  SubscribeOutcome = "subscribed"
	OutcomeDenied      SubscribeOutcome = "denied"
	OutcomeUnsupported SubscribeOutcome = "unsupported"
)

// ErrPersistence wraps store failures surfaced by the manager.
var ErrPersistence = errors.New("subscription persistence failed")

// State is the reconciled subscription view. Subscribed is true only when
// the platform subscription and the stored record agree on the endpoint;
// NeedsResubscribe flags either side existing without the other.
type State struct {
	Subscribed       bool
	NeedsResubscribe bool
}

// Manager owns the permission/registration/subscribe/unsubscribe lifecycle
// for one operator's device.
type Manager struct {
	platform   Platform
	store      store.Store
	operatorID string
	serverKey  string
}

// NewManager creates a manager bound to one operator identity. serverKey
// is the public VAPID application server key.
func NewManager(platform Platform, s store.Store, operatorID, serverKey string) *Manager {
	return &Manager{platform: platform, store: s, operatorID: operatorID, serverKey: serverKey}
}

// Supported re-derives platform capability; it has no side effects.
func (m *Manager) Supported() bool {
	return m.platform.Supported()
}

// Subscribe prompts for permission, registers the background agent,
// obtains a platform subscription, and upserts the operator's record.
// A persistence failure leaves the platform subscription live with no
// server record; the next Subscribe self-heals by upserting again.
func (m *Manager) Subscribe(ctx context.Context) (SubscribeOutcome, error) {
	if !m.platform.Supported() {
		return OutcomeUnsupported, nil
	}

	permission, err := m.platform.RequestPermission(ctx)
	if err != nil {
		return OutcomeDenied, fmt.Errorf("permission request failed: %w", err)
	}
	if permission != PermissionGranted {
		return OutcomeDenied, nil
	}

	if err := m.platform.RegisterAgent(ctx); err != nil {
		return OutcomeUnsupported, fmt.Errorf("background agent registration failed: %w", err)
	}

	sub, err := m.platform.Subscribe(ctx, m.serverKey)
	if err != nil {
		return OutcomeUnsupported, fmt.Errorf("platform subscribe failed: %w", err)
	}

	record := model.PushSubscription{
		OperatorID: m.operatorID,
		Endpoint:   sub.Endpoint,
		P256DH:     sub.P256DH,
		Auth:       sub.Auth,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := m.store.UpsertPushSubscription(ctx, record); err != nil {
		// No rollback of the platform subscription; State() will report
		// the mismatch until a later Subscribe repairs the record.
		return OutcomeSubscribed, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return OutcomeSubscribed, nil
}

// Unsubscribe cancels the platform subscription if one exists and deletes
// the stored record unconditionally. Absence of either side is success.
func (m *Manager) Unsubscribe(ctx context.Context) error {
	sub, err := m.platform.GetSubscription(ctx)
	if err != nil {
		log.Printf("platform subscription lookup failed during unsubscribe: %v", err)
	}
	if sub != nil {
		if err := m.platform.Unsubscribe(ctx); err != nil {
			log.Printf("platform unsubscribe failed: %v", err)
		}
	}

	if err := m.store.DeletePushSubscription(ctx, m.operatorID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// State cross-checks the platform subscription against the stored record.
// Either side alone is not trusted: a mismatch reports unsubscribed so the
// UI offers re-subscription instead of a false "active" state.
func (m *Manager) State(ctx context.Context) (State, error) {
	if !m.platform.Supported() {
		return State{}, nil
	}

	platformSub, err := m.platform.GetSubscription(ctx)
	if err != nil {
		return State{}, fmt.Errorf("platform subscription lookup failed: %w", err)
	}

	record, err := m.store.GetPushSubscription(ctx, m.operatorID)
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	switch {
	case platformSub == nil && record == nil:
		return State{}, nil
	case platformSub != nil && record != nil && platformSub.Endpoint == record.Endpoint:
		return State{Subscribed: true}, nil
	default:
		return State{NeedsResubscribe: true}, nil
	}
}
