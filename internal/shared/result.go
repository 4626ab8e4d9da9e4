package shared

// Status classifies the outcome of a guarded administration operation.
// Mapping onto transport level codes is the web layer's job.
type Status string

const (
	StatusOK               Status = "ok"
	StatusUnauthorized     Status = "unauthorized"
	StatusForbidden        Status = "forbidden"
	StatusValidationFailed Status = "validation_failed"
	StatusConflict         Status = "conflict"
	StatusNotFound         Status = "not_found"
	StatusUnavailable      Status = "unavailable"
)

// OpResult is the uniform result shape returned by guarded operations.
// Validation failures carry field level messages so forms can show all
// problems at once instead of failing on the first.
type OpResult struct {
	Status  Status              `json:"status"`
	Message string              `json:"message,omitempty"`
	Fields  map[string][]string `json:"fields,omitempty"`
}

// Ok reports whether the operation succeeded.
func (r OpResult) Ok() bool {
	return r.Status == StatusOK
}

// ResultOK builds a success result with an optional message.
func ResultOK(message string) OpResult {
	return OpResult{Status: StatusOK, Message: message}
}

// ResultUnauthorized indicates no acting user was identified at all.
func ResultUnauthorized() OpResult {
	return OpResult{Status: StatusUnauthorized, Message: "Sesi tidak ditemukan. Silakan masuk kembali."}
}

// ResultForbidden indicates the acting user lacks the required permission.
func ResultForbidden(message string) OpResult {
	if message == "" {
		message = "Akses ditolak."
	}
	return OpResult{Status: StatusForbidden, Message: message}
}

// ResultValidation carries field level validation messages.
func ResultValidation(fields map[string][]string) OpResult {
	return OpResult{Status: StatusValidationFailed, Message: "Data tidak valid.", Fields: fields}
}

// ResultConflict indicates a uniqueness conflict (duplicate identifier).
func ResultConflict(message string) OpResult {
	return OpResult{Status: StatusConflict, Message: message}
}

// ResultNotFound indicates the referenced entity does not exist.
func ResultNotFound(message string) OpResult {
	if message == "" {
		message = "Data tidak ditemukan."
	}
	return OpResult{Status: StatusNotFound, Message: message}
}

// ResultUnavailable indicates the decision could not be computed because the
// backing store failed. Distinct from Forbidden so operators can tell "no"
// apart from "couldn't tell".
func ResultUnavailable() OpResult {
	return OpResult{Status: StatusUnavailable, Message: "Layanan otorisasi sedang tidak tersedia."}
}
