package service

import (
	"fmt"
	"strings"

	"food-delivery/internal/domain"
)

// TransitionPolicy decides whether a merchant may move an order between
// two statuses.
type TransitionPolicy interface {
	Allow(from, to domain.OrderStatus) error
}

const (
	PolicyPermissive = "permissive"
	PolicyStrict     = "strict"
)

// NewTransitionPolicy returns the policy registered under name.
func NewTransitionPolicy(name string) (TransitionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyPermissive:
		return PermissivePolicy{}, nil
	case PolicyStrict:
		return NewStrictPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown order status policy %q", name)
	}
}

// PermissivePolicy allows any known status to follow any known status.
type PermissivePolicy struct{}

func (PermissivePolicy) Allow(from, to domain.OrderStatus) error {
	if !from.IsValid() || !to.IsValid() {
		return fmt.Errorf("unknown order status transition %s -> %s", from, to)
	}
	return nil
}

// StrictPolicy only allows the forward lifecycle edges.
type StrictPolicy struct {
	edges map[domain.OrderStatus][]domain.OrderStatus
}

func NewStrictPolicy() StrictPolicy {
	return StrictPolicy{edges: map[domain.OrderStatus][]domain.OrderStatus{
		domain.OrderStatusPending:        {domain.OrderStatusConfirmed, domain.OrderStatusCanceled},
		domain.OrderStatusConfirmed:      {domain.OrderStatusPreparing, domain.OrderStatusCanceled},
		domain.OrderStatusPreparing:      {domain.OrderStatusOutForDelivery},
		domain.OrderStatusOutForDelivery: {domain.OrderStatusDelivered},
	}}
}

func (p StrictPolicy) Allow(from, to domain.OrderStatus) error {
	for _, next := range p.edges[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("cannot change order status from %s to %s", from, to)
}
