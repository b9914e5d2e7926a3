package testrun

import (
	"strings"
	"time"
)

// SetRunName returns an UpdateSetter that sets the test run's name.
func SetRunName(name string) UpdateSetter {
	return func(tr *TestRun) error {
		if strings.TrimSpace(name) == "" {
			return ErrInvalidRunName
		}
		tr.RunName = name
		return nil
	}
}

// SetStatus returns an UpdateSetter that sets the test run's status.
func SetStatus(status Status) UpdateSetter {
	return func(tr *TestRun) error {
		if !status.IsValid() {
			return ErrInvalidStatus
		}
		tr.Status = status
		return nil
	}
}

// SetFileLink returns an UpdateSetter that sets the run's report link.
func SetFileLink(link string) UpdateSetter {
	return func(tr *TestRun) error {
		tr.FileLink = &link
		return nil
	}
}

// ClearFileLink returns an UpdateSetter that removes the run's report link.
func ClearFileLink() UpdateSetter {
	return func(tr *TestRun) error {
		tr.FileLink = nil
		return nil
	}
}

// SetStartDate returns an UpdateSetter that sets the run's start date.
func SetStartDate(at time.Time) UpdateSetter {
	return func(tr *TestRun) error {
		tr.StartDate = &at
		return nil
	}
}

// SetEndDate returns an UpdateSetter that sets the run's end date.
func SetEndDate(at time.Time) UpdateSetter {
	return func(tr *TestRun) error {
		tr.EndDate = &at
		return nil
	}
}
