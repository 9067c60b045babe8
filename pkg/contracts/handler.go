package contracts

import "github.com/julienschmidt/httprouter"

type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// IdempotencyExempt is implemented by handlers whose routes must never be
// served from the idempotency cache.
type IdempotencyExempt interface {
	IdempotencyExemptPaths() []string
}
