package calculator

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

const xRHInsightsRequestID = "x-rh-insights-request-id"
const xCalculatorPSK = "x-calculator-psk"

// Calculator picks emission factors for an activity entry and returns the
// resulting emission lines
type Calculator interface {
	Calculate(ctx context.Context, logger *logrus.Entry, req Request) (*Result, error)
}

// Request describes one activity entry sent for calculation
type Request struct {
	Standard string                 `json:"standard"`
	Step     string                 `json:"step"`
	Category string                 `json:"category"`
	Scope    int                    `json:"scope"`
	Data     map[string]interface{} `json:"data"`
}

// Line is one emission line returned by the calculator. Scope and CO2e are
// optional, the step default and value x factor x GWP are used instead.
type Line struct {
	Category             string   `json:"category"`
	Scope                *int     `json:"scope"`
	GasType              string   `json:"gas_type"`
	ActivityValue        float64  `json:"activity_value"`
	ActivityUnit         string   `json:"activity_unit"`
	EmissionFactor       float64  `json:"emission_factor"`
	EmissionFactorUnit   string   `json:"emission_factor_unit"`
	EmissionFactorSource string   `json:"emission_factor_source"`
	CO2e                 *float64 `json:"co2e"`
}

// Result is the calculator response
type Result struct {
	Lines      []Line  `json:"emissions"`
	Model      string  `json:"model,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// StatusError is returned when the calculator answers with a non 2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Invalid HTTP Status code from calculator %d %s", e.StatusCode, e.Body)
}

type httpCalculator struct {
	url    string
	psk    string
	client *http.Client
}

// NewClient creates a calculator talking to url
func NewClient(url, psk string, client *http.Client) Calculator {
	return &httpCalculator{url: url, psk: psk, client: client}
}

func (hc *httpCalculator) Calculate(ctx context.Context, glog *logrus.Entry, calcReq Request) (*Result, error) {
	payload, err := json.Marshal(calcReq)
	if err != nil {
		glog.Errorf("Error Marshaling Payload %v", err)
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hc.url, bytes.NewBuffer(payload))
	if err != nil {
		glog.Errorf("Error creating a new request %v", err)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set(xRHInsightsRequestID, id)
	}
	if hc.psk != "" {
		req.Header.Set(xCalculatorPSK, hc.psk)
	}
	resp, err := hc.client.Do(req)
	if err != nil {
		glog.Errorf("Error processing calculator request %v", err)
		return nil, err
	}
	defer resp.Body.Close()
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		glog.Errorf("Error reading body %v", err)
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		glog.Errorf("Error %v", err)
		return nil, err
	}
	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		glog.Errorf("Error parsing calculator response %v", err)
		return nil, fmt.Errorf("Error parsing calculator response: %w", err)
	}
	glog.Infof("Calculator returned %d lines for %s/%s", len(result.Lines), calcReq.Standard, calcReq.Step)
	return &result, nil
}
