package impl_platform

import (
	port_platform "github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/platform"
	"github.com/google/uuid"
)

var _ port_platform.IDGenerator = UUIDGenerator{}

type UUIDGenerator struct{}

func (UUIDGenerator) NewUUID() uuid.UUID { return uuid.New() }
