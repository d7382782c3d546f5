package service

import "context"

// Auditor records who changed what. Implementations must not block.
type Auditor interface {
	Record(ctx context.Context, action, actor string, entityID int64)
}

type noopAuditor struct{}

func (noopAuditor) Record(context.Context, string, string, int64) {}
