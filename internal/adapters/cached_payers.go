package adapters

import (
	"context"
	"errors"
	"time"

	"smetka/internal/cache"
	"smetka/internal/core"
	"smetka/internal/sheets"
)

const listKey = "\x00all"

// CachedPayers puts an LRU cache in front of a payer directory. Writes go
// through to the underlying store and invalidate the cache.
type CachedPayers struct {
	reader sheets.PayerReader
	writer sheets.PayerWriter
	list   *cache.LRUCache[[]core.Payer]
	byEIK  *cache.LRUCache[core.Payer]
}

var _ sheets.PayerReader = (*CachedPayers)(nil)

// NewCachedPayers wraps reader. writer may be nil for read-only directories.
func NewCachedPayers(reader sheets.PayerReader, writer sheets.PayerWriter, size int, ttl time.Duration) *CachedPayers {
	return &CachedPayers{
		reader: reader,
		writer: writer,
		list:   cache.NewLRUCache[[]core.Payer](1, ttl),
		byEIK:  cache.NewLRUCache[core.Payer](size, ttl),
	}
}

// Caches returns the underlying caches for registration with a cache.Manager.
func (c *CachedPayers) Caches() []cache.Cleaner {
	return []cache.Cleaner{c.list, c.byEIK}
}

func (c *CachedPayers) ListPayers(ctx context.Context) ([]core.Payer, error) {
	payers, err := c.list.GetOrLoad(listKey, func() ([]core.Payer, error) {
		return c.reader.ListPayers(ctx)
	})
	if err != nil {
		return nil, err
	}
	return append([]core.Payer(nil), payers...), nil
}

// FindPayer caches hits only, so a payer added later is found without waiting for expiry.
func (c *CachedPayers) FindPayer(ctx context.Context, eik string) (core.Payer, error) {
	return c.byEIK.GetOrLoad(eik, func() (core.Payer, error) {
		return c.reader.FindPayer(ctx, eik)
	})
}

// Writable reports whether SavePayer is supported.
func (c *CachedPayers) Writable() bool {
	return c.writer != nil
}

var ErrReadOnly = errors.New("payer directory is read-only")

func (c *CachedPayers) SavePayer(ctx context.Context, p core.Payer) error {
	if c.writer == nil {
		return ErrReadOnly
	}
	if err := c.writer.SavePayer(ctx, p); err != nil {
		return err
	}
	c.list.Purge()
	c.byEIK.Delete(p.EIK)
	return nil
}

// Stats reports the EIK lookup cache counters.
func (c *CachedPayers) Stats() cache.Stats {
	return c.byEIK.Stats()
}
