package logger

import (
	"context"
	"os"
	"strings"

	"github.com/RedHatInsights/carbon_ledger/config"
	"github.com/sirupsen/logrus"
)

type loggerKey int

const (
	entryKey loggerKey = iota
	requestIDKey
)

// InitLogger configures the standard logrus logger from the runtime configuration
// and returns the base entry used by the rest of the service
func InitLogger(cfg *config.LedgerConfig) *logrus.Entry {
	log := logrus.StandardLogger()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	if cfg.Debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)

	if cfg.AwsAccessKeyId != "" && cfg.AwsSecretAccessKey != "" {
		hook, err := NewCloudWatchHook(cfg.AwsRegion, cfg.AwsAccessKeyId, cfg.AwsSecretAccessKey, cfg.LogGroup, cfg.Hostname)
		if err != nil {
			log.Errorf("Error creating cloudwatch hook %v", err)
		} else {
			log.AddHook(hook)
		}
	}

	return log.WithFields(logrus.Fields{"app": "carbon_ledger", "hostname": cfg.Hostname})
}

// CtxWithLogger stores a logger entry in the context
func CtxWithLogger(ctx context.Context, entry *logrus.Entry) context.Context {
	return context.WithValue(ctx, entryKey, entry)
}

// GetLogger returns the logger entry stored in the context, or a bare
// entry on the standard logger when there is none
func GetLogger(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(entryKey).(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// CtxWithRequestID stores the request id and a logger tagged with it in the context
func CtxWithRequestID(ctx context.Context, base *logrus.Entry, requestID string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return CtxWithLogger(ctx, base.WithField("request_id", requestID))
}

// RequestID returns the request id stored in the context
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
