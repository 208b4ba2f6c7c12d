package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NumberSource allocates invoice numbers: globally unique and roughly
// sortable. Allocation never fails; when the sequence backend is down a
// locally generated token is used instead and the persistence-layer unique
// index remains the real guard.
type NumberSource interface {
	Next(ctx context.Context) string
}

// RedisNumberSource allocates sequential numbers from an atomic Redis
// counter, one sequence per calendar year.
type RedisNumberSource struct {
	Client *redis.Client
	Logger *zap.Logger
}

// Next returns the next invoice number, e.g. INV-2026-000042.
func (s *RedisNumberSource) Next(ctx context.Context) string {
	year := time.Now().Year()
	seq, err := s.Client.Incr(ctx, fmt.Sprintf("billing:invoice_seq:%d", year)).Result()
	if err != nil {
		s.Logger.Warn("invoice sequence unavailable, using fallback token", zap.Error(err))
		return FallbackInvoiceNumber()
	}
	return fmt.Sprintf("INV-%d-%06d", year, seq)
}

// FallbackInvoiceNumber builds a locally unique token when the sequence
// allocator is unavailable.
func FallbackInvoiceNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("INV-%d-%s", time.Now().UnixMilli(), suffix)
}
