package telemetry

import (
	"fmt"
	"sync"
	"testing"
)

// Report is a single call recorded by TestAPI.
type Report struct {
	Kind   string
	Id     string
	Params []any
}

// TestAPI implements API by recording every report and forwarding it to t.Log.
type TestAPI struct {
	t       testing.TB
	mutex   *sync.Mutex
	reports *[]Report
}

func NewTestAPI(t testing.TB) TestAPI {
	return TestAPI{
		t:       t,
		mutex:   &sync.Mutex{},
		reports: &[]Report{},
	}
}

func (a TestAPI) record(kind, id string, params []any) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	*a.reports = append(*a.reports, Report{Kind: kind, Id: id, Params: params})
	a.t.Log(kind, id, fmt.Sprint(params...))
}

func (a TestAPI) ReportBroken(id string, params ...any) {
	a.record("broken", id, params)
}

func (a TestAPI) ReportWarning(id string, params ...any) {
	a.record("warning", id, params)
}

func (a TestAPI) ReportDebug(msg string, params ...any) {
	a.record("debug", msg, params)
}

func (a TestAPI) ReportCount(id string, count int64) {
	a.record("count", id, []any{count})
}

// Broken returns the ids of every ReportBroken call so far.
func (a TestAPI) Broken() []string {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	var ids []string
	for _, r := range *a.reports {
		if r.Kind == "broken" {
			ids = append(ids, r.Id)
		}
	}
	return ids
}
