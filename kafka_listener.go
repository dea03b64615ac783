package main

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/RedHatInsights/carbon_ledger/config"
	"github.com/RedHatInsights/carbon_ledger/internal/jobstatus"
	"github.com/RedHatInsights/carbon_ledger/internal/logger"
	"github.com/sirupsen/logrus"
	"gopkg.in/confluentinc/confluent-kafka-go.v1/kafka"
)

// MessagePayload is the import request published on the topic
type MessagePayload struct {
	TenantID  int64  `json:"tenant_id"`
	ProjectID int64  `json:"project_id"`
	DataURL   string `json:"data_url"`
	TaskURL   string `json:"task_url"`
	Calculate bool   `json:"calculate"`
	Size      int64  `json:"size"`
}

// importStarter runs one import, it must call wg.Done when finished
type importStarter func(ctx context.Context, logger *logrus.Entry, message MessagePayload, headers map[string]string, shutdown chan struct{}, wg *sync.WaitGroup)

var newConsumer = func(cm *kafka.ConfigMap) (*kafka.Consumer, error) {
	return kafka.NewConsumer(cm)
}

// startKafkaListener consumes import requests until shutdown is closed. The
// API keeps serving when the consumer cannot start, only imports are off.
func startKafkaListener(cfg *config.LedgerConfig, log *logrus.Entry, start importStarter, shutdown chan struct{}, wg *sync.WaitGroup, subscribed *atomic.Value) {
	defer log.Info("Kafka Listener exiting")
	defer wg.Done()
	defer subscribed.Store(false)

	cm := kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.KafkaBrokers, ","),
		"group.id":          cfg.KafkaGroupID,
		"auto.offset.reset": "earliest",
	}
	c, err := newConsumer(&cm)
	if err != nil {
		if ke, ok := err.(kafka.Error); ok {
			switch ec := ke.Code(); ec {
			case kafka.ErrInvalidArg:
				log.Errorf("Invalid args to configure kafka code %d %v", ec, err)
			default:
				log.Errorf("Error creating Kafka consumer code %d %v", ec, err)
			}
		} else {
			log.Errorf("Error creating Kafka consumer %v", err)
		}
		log.Error("Kafka listener not started, imports are disabled")
		return
	}
	defer c.Close()

	if err := c.Subscribe(cfg.KafkaTopic, nil); err != nil {
		log.Errorf("Error subscribing to topic %s %v, imports are disabled", cfg.KafkaTopic, err)
		return
	}
	log.Infof("Subscribed to topic %s", cfg.KafkaTopic)
	subscribed.Store(true)

	for {
		select {
		case <-shutdown:
			log.Info("Closing Kafka Channel")
			return
		default:
		}

		ev := c.Poll(1000)
		if ev == nil {
			continue
		}
		switch e := ev.(type) {
		case *kafka.Message:
			message, headers, err := parseMessage(e)
			if err != nil {
				log.Errorf("Error parsing message %v", err)
				continue
			}
			mlog := log.WithFields(logrus.Fields{
				"request_id": headers[jobstatus.RequestIDHeader],
				"tenant_id":  message.TenantID,
				"project_id": message.ProjectID,
			})
			mlog.Infof("Received Kafka Message, #goroutines: %d", runtime.NumGoroutine())
			ctx := logger.CtxWithLogger(context.Background(), mlog)
			wg.Add(1)
			go start(ctx, mlog, message, headers, shutdown, wg)
		case kafka.Error:
			log.Errorf("Kafka error %v", e)
		default:
			log.Debugf("Ignored Kafka event %v", e)
		}
	}
}

// parseMessage decodes an import request, the identity header is required
// since the import runs on behalf of its user
func parseMessage(km *kafka.Message) (MessagePayload, map[string]string, error) {
	var message MessagePayload
	headers := map[string]string{}
	for _, hdr := range km.Headers {
		headers[strings.ToLower(hdr.Key)] = string(hdr.Value)
	}
	if _, ok := headers[jobstatus.IdentityHeader]; !ok {
		return message, headers, fmt.Errorf("message is missing the %s header", jobstatus.IdentityHeader)
	}
	if err := json.Unmarshal(km.Value, &message); err != nil {
		return message, headers, fmt.Errorf("Error decoding message: %w", err)
	}
	if message.TenantID <= 0 || message.ProjectID <= 0 || message.DataURL == "" {
		return message, headers, fmt.Errorf("message needs tenant_id, project_id and data_url")
	}
	return message, headers, nil
}
