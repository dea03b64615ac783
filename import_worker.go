package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/RedHatInsights/carbon_ledger/internal/importer"
	"github.com/RedHatInsights/carbon_ledger/internal/jobstatus"
	"github.com/RedHatInsights/carbon_ledger/internal/ledger"
	"github.com/RedHatInsights/carbon_ledger/internal/logger"
	"github.com/RedHatInsights/carbon_ledger/internal/metrics"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/RedHatInsights/carbon_ledger/internal/standards"
	"github.com/RedHatInsights/carbon_ledger/internal/xrhidentity"
	"github.com/sirupsen/logrus"
)

const importTimeout = 15 * time.Minute

type importContext struct {
	svc      *ledger.Service
	client   *http.Client
	reporter jobstatus.Reporter
	logger   *logrus.Entry
}

func newImportStarter(svc *ledger.Service, client *http.Client) importStarter {
	return func(ctx context.Context, logger *logrus.Entry, message MessagePayload, headers map[string]string, shutdown chan struct{}, wg *sync.WaitGroup) {
		ic := &importContext{
			svc:      svc,
			client:   client,
			reporter: jobstatus.MakeReporter(ctx, message.TaskURL, headers),
			logger:   logger,
		}
		startImportWorker(ctx, ic, message, headers, shutdown, wg)
	}
}

func startImportWorker(ctx context.Context, ic *importContext, message MessagePayload, headers map[string]string, shutdown chan struct{}, wg *sync.WaitGroup) {
	defer ic.logger.Info("Import Worker finished")
	defer wg.Done()
	ic.logger.Info("Import Worker started")

	ctx = logger.CtxWithRequestID(ctx, ic.logger, headers[jobstatus.RequestIDHeader])
	newCtx, cancel := context.WithTimeout(ctx, importTimeout)
	defer cancel()

	stats, err := ic.run(newCtx, message, headers, shutdown)
	metrics.Imports.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		ic.logger.Errorf("Import failed %v", err)
	}
	ic.updateTask(jobstatus.Completed(err, stats))
}

func (ic *importContext) run(ctx context.Context, message MessagePayload, headers map[string]string, shutdown chan struct{}) (map[string]interface{}, error) {
	xrh, err := xrhidentity.Decode(headers[jobstatus.IdentityHeader])
	if err != nil {
		return nil, err
	}
	user := xrhidentity.UserID(*xrh)
	if user == "" {
		return nil, fmt.Errorf("identity carries no user")
	}
	ic.updateTask(jobstatus.Running(fmt.Sprintf("Processing file size %d", message.Size)))

	var bol *importer.BillOfLading
	load := func(ctx context.Context, st *ledger.Store, p *project.Project, std *standards.Standard) ([]string, error) {
		bol = importer.MakeBillOfLading(ic.logger, p, std, st.Activities)
		if err := importer.ProcessTar(ctx, ic.logger, bol, ic.client, message.DataURL, shutdown); err != nil {
			return nil, err
		}
		return bol.Steps(), nil
	}
	req := ledger.ImportRequest{User: user, TenantID: message.TenantID, ProjectID: message.ProjectID, Calculate: message.Calculate}
	result, err := ic.svc.Import(ctx, req, load)
	if err != nil {
		return nil, err
	}

	stats := bol.GetStats(ctx)
	stats["steps"] = result.Steps
	stats["store"] = result.Stats
	if result.Summary != nil {
		stats["total_co2e"] = result.Summary.Total
	}
	return stats, nil
}

func (ic *importContext) updateTask(data map[string]interface{}) {
	if err := ic.reporter.Update(data, ic.client); err != nil {
		ic.logger.Errorf("Error updating import task %v", err)
	}
}
