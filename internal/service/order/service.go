package order

import (
	"context"
	"errors"

	"sneakerstore/internal/domain"
)

const adminRequired = "Permission denied. Admin access required."

type orderRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.Order, error)
}

type Service struct {
	repo orderRepo
}

func New(repo orderRepo) *Service {
	return &Service{repo: repo}
}

// GetUserOrders lists the requester's orders, newest first.
func (s *Service) GetUserOrders(ctx context.Context, requester domain.User) ([]domain.Order, error) {
	orders, err := s.repo.ListByUser(ctx, requester.ID)
	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, err, "list orders")
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// GetOrder returns one order to its purchaser or to an admin. Orders the
// requester may not see are reported as not found.
func (s *Service) GetOrder(ctx context.Context, requester domain.User, orderID string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.CodeNotFound, "Order not found")
		}
		return nil, domain.WrapError(domain.CodeInternal, err, "load order")
	}
	if order.PurchasedBy != requester.ID && !requester.IsAdmin {
		return nil, domain.NewError(domain.CodeNotFound, "Order not found")
	}
	return order, nil
}

func (s *Service) GetAllOrders(ctx context.Context, requester domain.User) ([]domain.Order, error) {
	if !requester.IsAdmin {
		return nil, domain.NewError(domain.CodePermissionDenied, adminRequired)
	}
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, err, "list orders")
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// UpdatePaymentStatus changes only the payment status of an order.
func (s *Service) UpdatePaymentStatus(ctx context.Context, requester domain.User, orderID, status string) (*domain.Order, error) {
	if !requester.IsAdmin {
		return nil, domain.NewError(domain.CodePermissionDenied, adminRequired)
	}
	next, err := domain.ToPaymentStatus(status)
	if err != nil {
		return nil, domain.WrapError(domain.CodeInvalidInput, err, "Invalid payment status")
	}
	updated, err := s.repo.UpdatePaymentStatus(ctx, orderID, next)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.CodeNotFound, "Order not found")
		}
		return nil, domain.WrapError(domain.CodeInternal, err, "update order")
	}
	return updated, nil
}
