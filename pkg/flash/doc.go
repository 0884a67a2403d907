// Package flash carries state across a redirect.
//
// A [Scope] collects action beans and messages during one request. Before
// the redirect the [Manager] saves it under a random key which travels as
// a query parameter; the next request loads it once and it is gone.
//
// # Stores
//
// Two [Store] implementations are provided:
//
//   - [Memory] keeps values in process, with expiry and an optional LRU cap.
//   - [Redis] keeps JSON-encoded values in Redis for multi-instance setups.
//
// Memory also serves as a general expiring map, for example to hold
// session-scoped beans between requests.
//
//	store := flash.NewMemory[*flash.Scope]()
//	defer store.Close()
//
//	m := flash.NewManager(store, 0)
//	key, _ := m.Save(ctx, scope)
//	// ... redirect with ?__fsk=key ...
//	scope, err := m.Load(ctx, key)
package flash
