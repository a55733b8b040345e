package impl_transfer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	port_transfer "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/usecase/transfer"
	"github.com/google/uuid"
)

func HashSubmitTransferInput(in port_transfer.SubmitTransferInput) string {
	user := strings.ToLower(strings.TrimSpace(in.UserID))
	quote := strings.ToLower(strings.TrimSpace(in.QuoteID))

	payload := fmt.Sprintf("%s|%s", user, quote)

	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// ScopedIdempotencyKey namespaces a client key by its owner, so two users
// sending the same key never see each other's transfers.
func ScopedIdempotencyKey(userID uuid.UUID, key string) string {
	return userID.String() + ":" + key
}
