package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "roster-console context key " + string(c)
}

// UserIDKey is the key for the signed-in operator's identity id
const UserIDKey = contextKey("userID")

// UserEmailKey is the key for the signed-in operator's email
const UserEmailKey = contextKey("userEmail")

// RequestIDKey is the key for the per-request correlation id
const RequestIDKey = contextKey("requestID")

// ComponentKey is the key for the component handling the request
const ComponentKey = contextKey("component")

// OperationKey is the key for the logical operation name
const OperationKey = contextKey("operation")
