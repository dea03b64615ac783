package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"

	"github.com/RedHatInsights/carbon_ledger/internal/models/activity"
	"github.com/RedHatInsights/carbon_ledger/internal/models/project"
	"github.com/RedHatInsights/carbon_ledger/internal/standards"
	"github.com/sirupsen/logrus"
)

// pageResponse is one list page of step entries bundled in the tar file
type pageResponse struct {
	Count    json.Number              `json:"count"`
	Next     *string                  `json:"next"`
	Previous *string                  `json:"previous"`
	Results  []map[string]interface{} `json:"results"`
}

var pageRe = regexp.MustCompile(`(?:^|/)steps/([a-z0-9_]+)/(ids|page\d+)\.json$`)

// BillOfLading collects the entries of one project read from an import
// archive. The ids page of a step lists the entries to keep, without it
// the entries seen in the pages of the step are kept.
type BillOfLading struct {
	logger   *logrus.Entry
	project  *project.Project
	standard *standards.Standard
	repo     activity.Repository
	seen     map[string][]string
	keep     map[string][]string
	pages    int
}

// MakeBillOfLading creates a BillOfLading storing entries of p through repo
func MakeBillOfLading(logger *logrus.Entry, p *project.Project, std *standards.Standard, repo activity.Repository) *BillOfLading {
	return &BillOfLading{
		logger:   logger,
		project:  p,
		standard: std,
		repo:     repo,
		seen:     map[string][]string{},
		keep:     map[string][]string{},
	}
}

// ProcessPage handles one file from the tar file
func (bol *BillOfLading) ProcessPage(ctx context.Context, name string, r io.Reader) error {
	m := pageRe.FindStringSubmatch(name)
	if m == nil {
		err := fmt.Errorf("Unexpected file %s in import", name)
		bol.logger.Errorf("%v", err)
		return err
	}
	stepName, kind := m[1], m[2]
	step, ok := bol.standard.Step(stepName)
	if !ok {
		err := fmt.Errorf("Unknown step %s for standard %s", stepName, bol.standard.ID)
		bol.logger.Errorf("%v", err)
		return err
	}

	var pr pageResponse
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	if err := decoder.Decode(&pr); err != nil {
		bol.logger.Errorf("Error decoding page %s %v", name, err)
		return err
	}
	bol.pages++
	bol.logger.Infof("Received %s %s entries in %s", pr.Count.String(), stepName, name)
	if _, ok := bol.seen[stepName]; !ok && kind != "ids" {
		bol.seen[stepName] = []string{}
	}

	for _, obj := range pr.Results {
		ref, err := sourceRef(obj)
		if err != nil {
			bol.logger.Errorf("Error in %s %v", name, err)
			return err
		}
		if kind == "ids" {
			bol.keep[stepName] = append(bol.keep[stepName], ref)
			continue
		}
		if err := step.Validate(obj); err != nil {
			bol.logger.Errorf("Entry %s of step %s is invalid %v", ref, stepName, err)
			return fmt.Errorf("entry %s of step %s: %w", ref, stepName, err)
		}
		a := &activity.Activity{ProjectID: bol.project.ID, Step: stepName}
		if err := bol.repo.CreateOrUpdate(ctx, bol.logger, a, obj); err != nil {
			bol.logger.Errorf("Error storing entry %s of step %s %v", ref, stepName, err)
			return err
		}
		bol.seen[stepName] = append(bol.seen[stepName], ref)
	}
	if _, ok := bol.keep[stepName]; !ok && kind == "ids" {
		bol.keep[stepName] = []string{}
	}
	return nil
}

// ProcessDeletes deletes the imported entries of the touched steps which
// are not part of this import
func (bol *BillOfLading) ProcessDeletes(ctx context.Context) error {
	for _, stepName := range bol.Steps() {
		refs, ok := bol.keep[stepName]
		if !ok {
			refs = bol.seen[stepName]
		}
		a := &activity.Activity{ProjectID: bol.project.ID, Step: stepName}
		if err := bol.repo.DeleteUnwanted(ctx, bol.logger, a, refs); err != nil {
			bol.logger.Errorf("Error deleting entries of step %s %v", stepName, err)
			return err
		}
	}
	return nil
}

// Steps returns the sorted names of the steps present in the archive
func (bol *BillOfLading) Steps() []string {
	names := map[string]bool{}
	for name := range bol.seen {
		names[name] = true
	}
	for name := range bol.keep {
		names[name] = true
	}
	steps := make([]string, 0, len(names))
	for name := range names {
		steps = append(steps, name)
	}
	sort.Strings(steps)
	return steps
}

// GetStats get counters for entries added/updated/deleted which are sent
// back with the job status
func (bol *BillOfLading) GetStats(ctx context.Context) map[string]interface{} {
	x := bol.repo.Stats()
	bol.logger.Infof("Activity Add %d Updates %d Deletes %d", x["adds"], x["updates"], x["deletes"])
	return map[string]interface{}{
		"activities": x,
		"pages":      bol.pages,
	}
}

func sourceRef(obj map[string]interface{}) (string, error) {
	switch id := obj["id"].(type) {
	case json.Number:
		return id.String(), nil
	case string:
		if id != "" {
			return id, nil
		}
	}
	return "", fmt.Errorf("Missing Required Attribute id")
}
