package infrastructure

import (
	"context"

	customerusecase "customerSyncWs/internal/modules/customers/application/usecase"
	customers "customerSyncWs/internal/modules/customers/domain"
	"customerSyncWs/internal/modules/realtime/domain"
)

// CustomerWriterAdapter bridges the wire update shape into the write
// orchestrator.
type CustomerWriterAdapter struct {
	Service *customerusecase.Service
}

func (a CustomerWriterAdapter) Update(ctx context.Context, customerID string, update domain.CustomerUpdate, requestID string) (*customers.Customer, error) {
	return a.Service.UpdateCustomer(ctx, customerID, customerusecase.UpdateCustomerInput{
		Email:       update.Email,
		Phone:       update.Phone,
		FirstName:   update.FirstName,
		LastName:    update.LastName,
		Preferences: update.Preferences,
		RequestID:   requestID,
	})
}
