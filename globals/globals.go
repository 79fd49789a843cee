package globals

import "context"

// Context keys
type ContextKey string

const IdentityKey ContextKey = "identity"

var Ctx = context.Background()

// JwtSecret verifies credentials issued by the identity provider.
// Set from config before serving.
var JwtSecret []byte
