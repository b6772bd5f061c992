package ledger

import (
	"context"
	"strings"
)

// resolver caches name -> ID lookups for one batch. Misses are cached too,
// so an unknown account name is only looked up once per batch.
type resolver struct {
	client   Client
	accounts map[string]string
	classes  map[string]string
	lookups  int
}

func newResolver(client Client) *resolver {
	return &resolver{
		client:   client,
		accounts: make(map[string]string),
		classes:  make(map[string]string),
	}
}

func (r *resolver) account(ctx context.Context, name string) (string, error) {
	return r.lookup(ctx, r.accounts, name, r.client.FindAccountID)
}

func (r *resolver) class(ctx context.Context, name string) (string, error) {
	return r.lookup(ctx, r.classes, name, r.client.FindClassID)
}

func (r *resolver) lookup(ctx context.Context, cache map[string]string, name string, find func(context.Context, string) (string, error)) (string, error) {
	key := strings.TrimSpace(name)
	if key == "" {
		return "", nil
	}
	if id, ok := cache[key]; ok {
		return id, nil
	}
	r.lookups++
	id, err := find(ctx, key)
	if err != nil {
		return "", err
	}
	cache[key] = id
	return id, nil
}
