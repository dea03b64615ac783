package importer

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Loader handles the files of an import archive
type Loader interface {
	ProcessPage(ctx context.Context, name string, r io.Reader) error
	ProcessDeletes(ctx context.Context) error
	GetStats(ctx context.Context) map[string]interface{}
}

// ErrShutdown is returned when the import is interrupted by a shutdown
var ErrShutdown = errors.New("import interrupted by shutdown")

// ProcessTar downloads a gzipped tar file from url and feeds one regular file
// at a time to the loader, the deletes are processed once all files are read
func ProcessTar(ctx context.Context, logger *logrus.Entry, loader Loader, client *http.Client, url string, shutdown chan struct{}) error {
	logger.Infof("Fetching URL %s", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		logger.Errorf("Error creating request for %s %v", url, err)
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		logger.Errorf("Error getting URL %s %v", url, err)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("Error getting URL %s status %d", url, resp.StatusCode)
		logger.Errorf("%v", err)
		return err
	}

	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		logger.Errorf("Error opening gzip %v", err)
		return err
	}
	defer zr.Close()
	tr := tar.NewReader(zr)
	for {
		select {
		case <-shutdown:
			logger.Info("Shutdown received, stopping import")
			return ErrShutdown
		default:
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Errorf("Error reading tar header %v", err)
			return err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		logger.Infof("Contents of %s", hdr.Name)
		if err := loader.ProcessPage(ctx, hdr.Name, tr); err != nil {
			logger.Errorf("Error handling file %s %v", hdr.Name, err)
			return err
		}
	}

	if err := loader.ProcessDeletes(ctx); err != nil {
		logger.Errorf("Error deleting entries %v", err)
		return err
	}
	return nil
}
