package constants

const (
	DefaultHealthCheckEndpoint = "/internal/health"
	DefaultPathPrefix          = "/"
)

// ViolationRateLimit identifies a rate-limit denial for security-metrics reporting.
const ViolationRateLimit = "rate_limit"

// ViolationSizeLimit identifies a request/header size denial for security-metrics reporting.
const ViolationSizeLimit = "size_limit"

