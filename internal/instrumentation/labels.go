package instrumentation

import "time"

// Label values shared by metrics, spans and audit logs.
const (
	StatusSuccess = "success"
	StatusError   = "error"

	OutcomeBooked   = "booked"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"

	ServiceCalendar = "calendar"
	ServiceSheets   = "sheets"
)

// Operation types recorded by the instrumented tool handlers. Google API
// spans use the finer grained REST method name instead.
const (
	OperationFreeBusy = "freebusy"
	OperationGet      = "get"
	OperationList     = "list"
	OperationInsert   = "insert"
	OperationAppend   = "append"
	OperationUpdate   = "update"
	OperationDelete   = "delete"
)

// Exporter names accepted by Config.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"
)

// exportInterval is the push period of the periodic metric readers.
const exportInterval = 10 * time.Second
