package jobstatus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/RedHatInsights/carbon_ledger/internal/logger"
	"github.com/sirupsen/logrus"
)

// Job states and outcomes
const (
	StateRunning   = "running"
	StateCompleted = "completed"
	StatusOK       = "ok"
	StatusError    = "error"
)

// Headers forwarded from the import message to the task endpoint
const (
	IdentityHeader  = "x-rh-identity"
	RequestIDHeader = "x-rh-insights-request-id"
)

// Reporter updates the task of an import job
type Reporter interface {
	Update(data map[string]interface{}, client *http.Client) error
}

type defaultReporter struct {
	url     string
	ctx     context.Context
	glog    *logrus.Entry
	headers map[string]string
}

// MakeReporter creates a Reporter patching the task at url
func MakeReporter(ctx context.Context, url string, headers map[string]string) Reporter {
	return &defaultReporter{ctx: ctx, url: url, glog: logger.GetLogger(ctx), headers: headers}
}

// Running is the payload sent when an import starts
func Running(message string) map[string]interface{} {
	return map[string]interface{}{"state": StateRunning, "status": StatusOK, "message": message}
}

// Completed is the payload sent when an import ends, err decides the status
func Completed(err error, stats map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{"state": StateCompleted, "status": StatusOK, "message": "import completed"}
	if err != nil {
		data["status"] = StatusError
		data["message"] = err.Error()
	}
	if stats != nil {
		data["output"] = map[string]interface{}{"stats": stats}
	}
	return data
}

// Update patches the task with data
func (dr *defaultReporter) Update(data map[string]interface{}, client *http.Client) error {
	payload, err := json.Marshal(data)
	if err != nil {
		dr.glog.Errorf("Error Marshaling Payload %v", err)
		return err
	}
	req, err := http.NewRequestWithContext(dr.ctx, http.MethodPatch, dr.url, bytes.NewBuffer(payload))
	if err != nil {
		dr.glog.Errorf("Error creating a new request %v", err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	identity, ok := dr.headers[IdentityHeader]
	if !ok {
		err = fmt.Errorf("X_RH_IDENTITY is not set in message headers")
		dr.glog.Errorf("%v", err)
		return err
	}
	req.Header.Set(IdentityHeader, identity)
	if val, ok := dr.headers[RequestIDHeader]; ok {
		req.Header.Set(RequestIDHeader, val)
	}
	resp, err := client.Do(req)
	if err != nil {
		dr.glog.Errorf("Error processing request %v", err)
		return err
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		dr.glog.Errorf("Error reading body %v", err)
		return err
	}
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("Invalid HTTP Status code from patch %d", resp.StatusCode)
		dr.glog.Errorf("Error %v %s", err, string(body))
		return err
	}
	dr.glog.Infof("Task update status code %d", resp.StatusCode)
	return nil
}
