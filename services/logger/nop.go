package logsvc

import "github.com/ghabbala/VU-Interniship-System/core"

// NopLogger discards everything. Handy for tests and one-shot commands.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (NopLogger) Enable(bool)                  {}
func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
