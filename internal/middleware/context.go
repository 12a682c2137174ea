package middleware

// ContextKeyRequestID stores the request identifier on the echo context.
const ContextKeyRequestID = "request_id"

// TimestampFormat is the UTC millisecond ISO-8601 layout stamped on every error body.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"
