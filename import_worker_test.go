package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"errors"
	"io/ioutil"
	"net/http"
	"sync"
	"testing"

	"github.com/RedHatInsights/carbon_ledger/internal/calculator"
	"github.com/RedHatInsights/carbon_ledger/internal/jobstatus"
	"github.com/RedHatInsights/carbon_ledger/internal/ledger"
	"github.com/RedHatInsights/carbon_ledger/internal/logger"
	"github.com/RedHatInsights/carbon_ledger/internal/models/mocks"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/RedHatInsights/carbon_ledger/internal/models/tenant"
	"github.com/RedHatInsights/carbon_ledger/internal/models/testhelper"
	"github.com/RedHatInsights/carbon_ledger/internal/standards"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type fakeReporter struct {
	updates []map[string]interface{}
	err     error
}

func (fr *fakeReporter) Update(data map[string]interface{}, client *http.Client) error {
	fr.updates = append(fr.updates, data)
	return fr.err
}

func (fr *fakeReporter) last() map[string]interface{} {
	if len(fr.updates) == 0 {
		return nil
	}
	return fr.updates[len(fr.updates)-1]
}

type fakeTransport struct {
	body   []byte
	status int
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: f.status,
		Status:     http.StatusText(f.status),
		Body:       ioutil.NopCloser(bytes.NewReader(f.body)),
		Header:     http.Header{"Content-Type": {"application/x-gtar"}},
	}, nil
}

type fakeCalculator struct {
	calls      int
	requestIDs []string
}

func (fc *fakeCalculator) Calculate(ctx context.Context, glog *logrus.Entry, req calculator.Request) (*calculator.Result, error) {
	fc.calls++
	fc.requestIDs = append(fc.requestIDs, logger.RequestID(ctx))
	co2e := 2.5
	return &calculator.Result{Lines: []calculator.Line{{GasType: "CO2", ActivityValue: 1, EmissionFactor: 2.5, CO2e: &co2e}}}, nil
}

func makeArchive(t *testing.T, files map[string]string) []byte {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, body := range files {
		assert.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(body))}))
		_, err := tw.Write([]byte(body))
		assert.NoError(t, err)
	}
	assert.NoError(t, tw.Close())
	assert.NoError(t, gz.Close())
	return buf.Bytes()
}

const importPage = `{"count": 2, "next": null, "previous": null, "results": [
	{"id": 73, "fuel_type": "diesel", "quantity": 120.5, "unit": "litres"},
	{"id": 78, "fuel_type": "natural_gas", "quantity": 900, "unit": "kWh"}]}`

type workerFixture struct {
	store    *ledger.Store
	members  *mocks.MockTenantUserRepository
	reporter *fakeReporter
	calc     *fakeCalculator
	ic       *importContext
	message  MessagePayload
	headers  map[string]string
}

func newWorkerFixture(t *testing.T, archive []byte, status int) *workerFixture {
	f := &workerFixture{
		members:  mocks.NewMockTenantUserRepository(),
		reporter: &fakeReporter{},
		calc:     &fakeCalculator{},
	}
	f.store = &ledger.Store{
		Tenants:      mocks.NewMockTenantRepository(),
		Members:      f.members,
		Projects:     mocks.NewMockProjectRepository(),
		Activities:   mocks.NewMockActivityRepository(),
		Calculations: mocks.NewMockCalculationRepository(),
		Summaries:    mocks.NewMockSummaryRepository(),
	}
	ctx := context.TODO()
	log := testhelper.TestLogger()
	tn := &tenant.Tenant{Name: "Acme"}
	assert.NoError(t, f.store.Tenants.Create(ctx, log, tn))
	p := &project.Project{TenantID: tn.ID, Standard: "ghg_protocol", Name: "FY24"}
	assert.NoError(t, f.store.Projects.Create(ctx, log, p))
	f.members.Seed(tn.ID, "jdoe", "member")

	svc := ledger.NewService(ledger.NewStaticTransactor(f.store), f.calc, standards.Default())
	f.ic = &importContext{
		svc:      svc,
		client:   &http.Client{Transport: &fakeTransport{body: archive, status: status}},
		reporter: f.reporter,
		logger:   log,
	}
	f.message = MessagePayload{TenantID: tn.ID, ProjectID: p.ID, DataURL: "http://www.example.com/import.tar.gz", TaskURL: "http://www.example.com/task/1", Size: 900}
	f.headers = map[string]string{
		jobstatus.IdentityHeader:  identityHeader("jdoe"),
		jobstatus.RequestIDHeader: "abc",
	}
	return f
}

func identityHeader(user string) string {
	raw := `{"identity":{"account_number":"6089719","type":"User","internal":{"org_id":"3340851"},"user":{"username":"` + user + `"}}}`
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

func (f *workerFixture) start() {
	var wg sync.WaitGroup
	wg.Add(1)
	startImportWorker(context.TODO(), f.ic, f.message, f.headers, make(chan struct{}), &wg)
	wg.Wait()
}

func TestStartImportWorkerSuccess(t *testing.T) {
	archive := makeArchive(t, map[string]string{"steps/stationary_combustion/page1.json": importPage})
	f := newWorkerFixture(t, archive, http.StatusOK)
	f.message.Calculate = true
	f.start()

	assert.Len(t, f.reporter.updates, 2)
	assert.Equal(t, jobstatus.StateRunning, f.reporter.updates[0]["state"])
	done := f.reporter.last()
	assert.Equal(t, jobstatus.StateCompleted, done["state"])
	assert.Equal(t, jobstatus.StatusOK, done["status"], done["message"])

	stats := done["output"].(map[string]interface{})["stats"].(map[string]interface{})
	assert.Equal(t, []string{"stationary_combustion"}, stats["steps"])
	assert.Equal(t, 5.0, stats["total_co2e"])
	assert.Equal(t, 2, f.calc.calls)
	assert.Equal(t, []string{"abc", "abc"}, f.calc.requestIDs)

	acts := f.store.Activities.(*mocks.MockActivityRepository)
	assert.Equal(t, 2, acts.AddsCalled)
	ps, err := f.store.Summaries.GetByProject(context.TODO(), testhelper.TestLogger(), f.message.ProjectID)
	assert.NoError(t, err)
	assert.Equal(t, 5.0, ps.Total)
}

func TestStartImportWorkerWithoutCalculate(t *testing.T) {
	archive := makeArchive(t, map[string]string{"steps/stationary_combustion/page1.json": importPage})
	f := newWorkerFixture(t, archive, http.StatusOK)
	f.start()

	assert.Equal(t, jobstatus.StatusOK, f.reporter.last()["status"])
	assert.Equal(t, 0, f.calc.calls)
}

func TestStartImportWorkerFailures(t *testing.T) {
	good := map[string]string{"steps/stationary_combustion/page1.json": importPage}
	tests := []struct {
		name    string
		files   map[string]string
		status  int
		modify  func(f *workerFixture)
		updates int
	}{
		{name: "archive missing", files: good, status: http.StatusNotFound, updates: 2},
		{name: "invalid entry", files: map[string]string{"steps/stationary_combustion/page1.json": `{"count": 1, "results": [{"id": 1, "fuel_type": "diesel"}]}`}, status: http.StatusOK, updates: 2},
		{name: "unknown project", files: good, status: http.StatusOK, modify: func(f *workerFixture) { f.message.ProjectID = 42 }, updates: 2},
		{name: "not a member", files: good, status: http.StatusOK, modify: func(f *workerFixture) { f.headers[jobstatus.IdentityHeader] = identityHeader("mallory") }, updates: 2},
		{name: "bad identity", files: good, status: http.StatusOK, modify: func(f *workerFixture) { f.headers[jobstatus.IdentityHeader] = "%%%" }, updates: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWorkerFixture(t, makeArchive(t, tt.files), tt.status)
			if tt.modify != nil {
				tt.modify(f)
			}
			f.start()

			assert.Len(t, f.reporter.updates, tt.updates)
			done := f.reporter.last()
			assert.Equal(t, jobstatus.StateCompleted, done["state"])
			assert.Equal(t, jobstatus.StatusError, done["status"])
			assert.NotEmpty(t, done["message"])
			_, err := f.store.Summaries.GetByProject(context.TODO(), testhelper.TestLogger(), 1)
			assert.Error(t, err)
		})
	}
}

func TestStartImportWorkerReporterFailure(t *testing.T) {
	archive := makeArchive(t, map[string]string{"steps/stationary_combustion/page1.json": importPage})
	f := newWorkerFixture(t, archive, http.StatusOK)
	f.reporter.err = errors.New("kaboom")
	f.start()

	assert.Len(t, f.reporter.updates, 2)
	acts := f.store.Activities.(*mocks.MockActivityRepository)
	assert.Equal(t, 2, acts.AddsCalled)
}
