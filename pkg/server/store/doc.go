// Package store provides storage abstractions for the custody server.
//
// Endpoints and services depend on these interfaces rather than on GORM so
// they can be tested with mocks. The GORM implementations live in the gorm
// subpackage.
//
// # Available Stores
//
//   - CredentialStore: user registration and lookup by username
//   - KeyStore: key creation and owner-scoped lookup
//   - HealthStore: database connectivity
//
// # Usage
//
//	keys := gorm.NewKeyStore(db)
//	key, err := keys.FindOwnedKey(ctx, keyID, ownerID)
//	if err != nil {
//	    if errors.Is(err, store.ErrKeyNotFound) {
//	        // 404
//	    }
//	}
package store
