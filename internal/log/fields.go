package log

// Field names shared by every component.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldCollection = "collection"
	FieldRecordID   = "record_id"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldTitle      = "title"
	FieldAmount     = "amount_cents"
	FieldCategoryID = "category_id"
)

const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentBackend = "backend"
	ComponentBackup  = "backup"
	ComponentEvents  = "events"
)

const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpRepeat   = "repeat"
	OpExport   = "export"
	OpImport   = "import"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeFormat        = "format_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields builds structured attributes fluently.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

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

// WithRecord tags the collection and id a log line is about.
func (f LogFields) WithRecord(collection string, id int64) LogFields {
	f[FieldCollection] = collection
	if id != 0 {
		f[FieldRecordID] = id
	}
	return f
}

func (f LogFields) WithExpense(title string, amountCents, categoryID int64) LogFields {
	f[FieldTitle] = title
	f[FieldAmount] = amountCents
	f[FieldCategoryID] = categoryID
	return f
}

func (f LogFields) WithPeriod(year, month int) LogFields {
	f[FieldYear] = year
	f[FieldMonth] = month
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice flattens the fields into slog key/value arguments.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
