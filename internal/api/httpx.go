package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/RedHatInsights/carbon_ledger/internal/apperrors"
	"github.com/RedHatInsights/carbon_ledger/internal/logger"
	"github.com/RedHatInsights/carbon_ledger/internal/xrhidentity"
	"github.com/go-chi/chi/v5"
	"github.com/redhatinsights/platform-go-middlewares/identity"
)

// Response is what a handler returns on success
type Response struct {
	StatusCode int
	Location   string
	Response   interface{}
}

// RequestHandler handles one API request
type RequestHandler func(r *http.Request) (*Response, error)

// ResponseHandlerParam declares a route
type ResponseHandlerParam struct {
	Method  string
	Path    string
	Handler RequestHandler
}

type errorRsp struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
	Details []string       `json:"details,omitempty"`
}

// WrapHttpRsp turns a RequestHandler into an http.HandlerFunc, a returned
// error is sent with the status of its code
func WrapHttpRsp(handler RequestHandler) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rsp, err := handler(r)
		if err != nil {
			sendError(w, r, err)
			return
		}
		if rsp == nil {
			sendError(w, r, apperrors.Internal("no response"))
			return
		}
		if rsp.Location != "" {
			w.Header().Set("Location", rsp.Location)
		}
		if rsp.StatusCode == http.StatusNoContent {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		sendJSON(w, r, rsp.StatusCode, rsp.Response)
	})
}

func sendJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		logger.GetLogger(r.Context()).Errorf("Error encoding response %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func sendError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.As(err)
	glog := logger.GetLogger(r.Context())
	if appErr.Code == apperrors.InternalCode {
		glog.Errorf("Request failed %v", err)
	} else {
		glog.Infof("Request rejected %v", appErr)
	}
	sendJSON(w, r, appErr.StatusCode(), errorRsp{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details})
}

// MaxBodySize limits the request bodies the API reads
const MaxBodySize = 1 << 20

// decodeBody reads the JSON body of a POST, PUT or PATCH request
func decodeBody(r *http.Request, data interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return apperrors.BadRequest("empty request body")
	}
	d := json.NewDecoder(r.Body)
	d.UseNumber()
	if err := d.Decode(data); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.BadRequest("request body exceeds %d bytes", tooLarge.Limit)
		}
		return apperrors.BadRequest("unable to parse request: %v", err)
	}
	return nil
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.BadRequest("invalid %s %q", name, raw)
	}
	return id, nil
}

// userOf returns the user the identity middleware authenticated
func userOf(r *http.Request) string {
	return xrhidentity.UserID(identity.Get(r.Context()))
}

func ok(body interface{}) (*Response, error) {
	return &Response{StatusCode: http.StatusOK, Response: body}, nil
}

func created(location string, body interface{}) (*Response, error) {
	return &Response{StatusCode: http.StatusCreated, Location: location, Response: body}, nil
}

func noContent() (*Response, error) {
	return &Response{StatusCode: http.StatusNoContent}, nil
}
