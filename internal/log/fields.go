package log

import (
	"sort"

	"smetka/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldQuery          = "query"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldUserAgent      = "user_agent"
	FieldSuccess        = "success"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldContractAmount = "contract_amount"
	FieldExpenseRatio   = "expense_ratio"
	FieldNetAmount      = "net_amount"
	FieldAdvanceTax     = "tax_advance"
	FieldDocumentMonth  = "document_month"
	FieldJobID          = "job_id"
	FieldEIK            = "eik"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentCalc      = "calculator"
	ComponentRender    = "render"
	ComponentPayers    = "payers"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

const (
	OpCalculate = "calculate"
	OpRender    = "render"
	OpEnqueue   = "enqueue"
	OpList      = "list"
	OpFind      = "find"
	OpParse     = "parse"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)

// LogFields is a small builder for structured log attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError is a no-op for a nil error.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithStatement adds the headline figures of a calculated statement.
func (f LogFields) WithStatement(d core.Declaration, r core.Result) LogFields {
	f[FieldContractAmount] = core.FormatAmount(r.ContractAmount)
	f[FieldExpenseRatio] = int(d.ExpenseRatio)
	f[FieldNetAmount] = core.FormatAmount(r.NetAmount)
	f[FieldAdvanceTax] = core.FormatAmount(r.AdvanceTax)
	f[FieldDocumentMonth] = d.DocumentDate.Month()
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value pairs, sorted by key so
// output is stable.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(f)*2)
	for _, k := range keys {
		out = append(out, k, f[k])
	}
	return out
}
