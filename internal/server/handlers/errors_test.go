package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/swiftcheckout/internal/domain/ledger"
	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
	"github.com/mamadbah2/swiftcheckout/internal/service/checkout"
)

func TestStatusFor(t *testing.T) {
	wrapped := fmt.Errorf("%w: %w", checkout.ErrCollaborator, errors.New("timeout"))
	cases := []struct {
		err  error
		want int
	}{
		{ledger.ErrNotEditable, http.StatusConflict},
		{ledger.ErrInvalidTransition, http.StatusConflict},
		{ledger.ErrEmptyTransaction, http.StatusUnprocessableEntity},
		{checkout.ErrUnsupportedCurrency, http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: name is required", checkout.ErrInvalidInput), http.StatusBadRequest},
		{models.ErrInvalidPaymentMethod, http.StatusBadRequest},
		{models.ErrInvalidDataURI, http.StatusBadRequest},
		{ledger.ErrInvalidPrice, http.StatusBadRequest},
		{wrapped, http.StatusBadGateway},
		{ledger.ErrRepricingFailed, http.StatusBadGateway},
		{checkout.ErrFeatureDisabled, http.StatusServiceUnavailable},
		{errors.New("something else broke"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
