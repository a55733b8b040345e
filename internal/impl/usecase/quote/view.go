package impl_quote

import (
	domain_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/domain/quote"
	port_quote "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/usecase/quote"
)

func toView(q *domain_quote.Quote) port_quote.QuoteView {
	return port_quote.QuoteView{
		QuoteID:       q.ID().String(),
		UserID:        q.UserID().String(),
		BeneficiaryID: q.BeneficiaryID().String(),
		Amount:        q.Amount(),
		FXRate:        q.FXRate(),
		Fee:           q.Fee(),
		ReceiveAmount: q.ReceiveAmount(),
		CreatedAt:     q.CreatedAt(),
		ExpiresAt:     q.ExpiresAt(),
	}
}
