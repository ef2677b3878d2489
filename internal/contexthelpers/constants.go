package contexthelpers

type contextKey string

const requestIDContextKey = contextKey("requestID")
const csrfTokenContextKey = contextKey("csrfToken")
