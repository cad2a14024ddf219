package services

import (
	"keyshop/internal/apperr"
	"keyshop/internal/domain"
)

// reserve allocates quantity activation codes from a product snapshot read
// inside the ambient transaction and decrements its stock. Codes come off the
// front of the pool in insertion order. The snapshot is mutated in place; the
// caller queues the write, so the check and the mutation commit atomically
// with respect to concurrent reservations.
func reserve(p *domain.Product, quantity int) ([]string, error) {
	if p.Stock.Total < quantity {
		return nil, apperr.WithDetails(apperr.InsufficientStock,
			"not enough stock for product "+p.ID,
			map[string]any{
				"productId": p.ID,
				"requested": quantity,
				"available": p.Stock.Total,
			})
	}
	// Stock without enough codes means inconsistent data; hard failure, never
	// a partial fulfillment.
	if len(p.ActivationCodes) < quantity {
		return nil, apperr.WithDetails(apperr.InsufficientCodes,
			"not enough activation codes for product "+p.ID,
			map[string]any{
				"productId": p.ID,
				"requested": quantity,
				"available": len(p.ActivationCodes),
			})
	}

	codes := append([]string(nil), p.ActivationCodes[:quantity]...)
	p.ActivationCodes = append([]string(nil), p.ActivationCodes[quantity:]...)
	p.Stock.Total -= quantity
	return codes, nil
}
