package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/logo-redact/internal/config"
	"github.com/ironsheep/logo-redact/internal/detection"
	"github.com/ironsheep/logo-redact/internal/document"
	"github.com/ironsheep/logo-redact/internal/logger"
)

// job carries everything scoped to one processing run. Nothing in it is
// shared with other jobs.
type job struct {
	id       string
	settings Settings
	profile  config.Profile
	doc      document.Document
	detector detection.Detector
	pages    []int
	started  time.Time
	log      *logrus.Entry
}

func newJob(settings Settings, profile config.Profile) *job {
	id := uuid.New().String()
	return &job{
		id:       id,
		settings: settings,
		profile:  profile,
		started:  time.Now().UTC(),
		log: logger.WithFields(logrus.Fields{
			"job_id":     id,
			"detector":   settings.DetectorMode,
			"format_key": settings.FormatKey,
		}),
	}
}

// detectorName is what the audit records as the detector.
func (j *job) detectorName() string {
	if j.settings.ForceFooterBanner {
		return "force-footer-banner"
	}
	return string(j.settings.DetectorMode)
}
