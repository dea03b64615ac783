package logger

import (
	"sort"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/sirupsen/logrus"
)

const (
	flushInterval     = 5 * time.Second
	maxBatchSize      = 500
	maxBufferedEvents = 10 * maxBatchSize
)

// logSink is the subset of the CloudWatch Logs API the hook needs
type logSink interface {
	CreateLogStream(*cloudwatchlogs.CreateLogStreamInput) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(*cloudwatchlogs.PutLogEventsInput) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// CloudWatchHook ships formatted log entries to a CloudWatch log group in batches
type CloudWatchHook struct {
	svc           logSink
	group         string
	stream        string
	formatter     logrus.Formatter
	mu            sync.Mutex
	events        []*cloudwatchlogs.InputLogEvent
	dropped       int
	sequenceToken *string
}

// NewCloudWatchHook creates the log stream and starts the background flusher
func NewCloudWatchHook(region, keyID, secret, group, stream string) (*CloudWatchHook, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewStaticCredentials(keyID, secret, ""),
	})
	if err != nil {
		return nil, err
	}
	hook, err := newCloudWatchHook(cloudwatchlogs.New(sess), group, stream)
	if err != nil {
		return nil, err
	}
	go func() {
		for range time.Tick(flushInterval) {
			if err := hook.Flush(); err != nil {
				logrus.StandardLogger().Out.Write([]byte("cloudwatch flush failed: " + err.Error() + "\n"))
			}
		}
	}()
	return hook, nil
}

func newCloudWatchHook(svc logSink, group, stream string) (*CloudWatchHook, error) {
	_, err := svc.CreateLogStream(&cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(group),
		LogStreamName: aws.String(stream),
	})
	if err != nil {
		if aerr, ok := err.(interface{ Code() string }); !ok || aerr.Code() != cloudwatchlogs.ErrCodeResourceAlreadyExistsException {
			return nil, err
		}
	}
	return &CloudWatchHook{svc: svc, group: group, stream: stream, formatter: &logrus.JSONFormatter{}}, nil
}

// Levels implements logrus.Hook
func (h *CloudWatchHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook, it buffers the entry and starts a flush when
// a batch is complete. The oldest entries are dropped while CloudWatch
// keeps failing.
func (h *CloudWatchHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.events = append(h.events, &cloudwatchlogs.InputLogEvent{
		Message:   aws.String(string(line)),
		Timestamp: aws.Int64(entry.Time.UnixNano() / int64(time.Millisecond)),
	})
	if over := len(h.events) - maxBufferedEvents; over > 0 {
		h.events = h.events[over:]
		h.dropped += over
	}
	full := len(h.events) == maxBatchSize
	h.mu.Unlock()
	if full {
		return h.Flush()
	}
	return nil
}

// Flush sends the buffered entries in batches, entries of a failed batch
// stay buffered for the next flush
func (h *CloudWatchHook) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	// CloudWatch rejects batches that are not in chronological order
	sort.SliceStable(h.events, func(i, j int) bool {
		return *h.events[i].Timestamp < *h.events[j].Timestamp
	})
	for len(h.events) > 0 {
		n := len(h.events)
		if n > maxBatchSize {
			n = maxBatchSize
		}
		out, err := h.svc.PutLogEvents(&cloudwatchlogs.PutLogEventsInput{
			LogEvents:     h.events[:n],
			LogGroupName:  aws.String(h.group),
			LogStreamName: aws.String(h.stream),
			SequenceToken: h.sequenceToken,
		})
		if err != nil {
			return err
		}
		h.sequenceToken = out.NextSequenceToken
		h.events = h.events[n:]
	}
	h.events = nil
	return nil
}

// Dropped returns the number of entries discarded because the buffer was full
func (h *CloudWatchHook) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}
