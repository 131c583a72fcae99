// Package mocks provides shared test doubles for the store, audit and
// notification interfaces.
//
// The store doubles are map-backed and behave like a real database for the
// common paths: they enforce email uniqueness, return copies rather than
// shared pointers, and serialize Update and Delete per store. Each method
// can be overridden through its function field to inject failures:
//
//	users := mocks.NewMockUserStore()
//	users.GetByIDFn = func(ctx context.Context, id uuid.UUID) (*domain.User, error) {
//	    return nil, errors.New("connection reset")
//	}
package mocks
