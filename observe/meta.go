package observe

// CallMeta identifies an upstream data call or a cache lookup for telemetry.
type CallMeta struct {
	Provider  string // data provider tag, e.g. "opendart"
	Operation string // provider operation, e.g. "fnlttSinglAcnt"
	Key       string // cache key, optional
}

// ID returns provider.operation, or just the operation when no provider is set.
func (m CallMeta) ID() string {
	if m.Provider == "" {
		return m.Operation
	}
	return m.Provider + "." + m.Operation
}

// SpanName returns the deterministic span name for this call.
// Format: fetch.<provider>.<operation>
func (m CallMeta) SpanName() string {
	return "fetch." + m.ID()
}
