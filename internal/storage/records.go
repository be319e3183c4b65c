package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"eduanalytics/internal/models"
)

// IndicatorFilter selects indicator measurements. Zero fields match
// everything; From and To are inclusive.
type IndicatorFilter struct {
	StudentID string
	Type      models.IndicatorType
	From      time.Time
	To        time.Time
}

func (f IndicatorFilter) match(m models.IndicatorMeasurement) bool {
	if f.StudentID != "" && m.StudentID != f.StudentID {
		return false
	}
	if f.Type != "" && m.IndicatorType != f.Type {
		return false
	}
	if !f.From.IsZero() && m.MeasuredAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && m.MeasuredAt.After(f.To) {
		return false
	}
	return true
}

// PutStudent stores a student profile, assigning an id when empty. The
// stored profile is returned.
func (s *Store) PutStudent(profile models.StudentProfile) (models.StudentProfile, error) {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return put(tx, studentsBucket, []byte(profile.ID), profile)
	})
	if err != nil {
		return models.StudentProfile{}, fmt.Errorf("store student %s: %w", profile.ID, err)
	}
	return profile, nil
}

// GetStudent returns the profile stored under id, or ErrNotFound.
func (s *Store) GetStudent(id string) (models.StudentProfile, error) {
	var profile models.StudentProfile

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(studentsBucket)).Get([]byte(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &profile)
	})
	if err != nil {
		return models.StudentProfile{}, fmt.Errorf("get student %s: %w", id, err)
	}
	return profile, nil
}

// ListStudents returns every profile ordered by id.
func (s *Store) ListStudents() ([]models.StudentProfile, error) {
	return scanPrefix[models.StudentProfile](s, studentsBucket, nil, nil)
}

// PutAssessment stores an assessment, assigning an id and a creation time
// when missing.
func (s *Store) PutAssessment(record models.AssessmentRecord) (models.AssessmentRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return put(tx, assessmentsBucket, timeKey(record.StudentID, record.CreatedAt, record.ID), record)
	})
	if err != nil {
		return models.AssessmentRecord{}, fmt.Errorf("store assessment: %w", err)
	}
	return record, nil
}

// ListAssessments returns a student's assessments, oldest first.
func (s *Store) ListAssessments(studentID string) ([]models.AssessmentRecord, error) {
	return scanPrefix(s, assessmentsBucket, studentPrefix(studentID), func(r models.AssessmentRecord) bool {
		return r.StudentID == studentID
	})
}

// PutIndicator stores an indicator measurement, assigning an id when empty.
func (s *Store) PutIndicator(m models.IndicatorMeasurement) (models.IndicatorMeasurement, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.MeasuredAt.IsZero() {
		m.MeasuredAt = time.Now().UTC()
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return put(tx, indicatorsBucket, timeKey(m.StudentID, m.MeasuredAt, m.ID), m)
	})
	if err != nil {
		return models.IndicatorMeasurement{}, fmt.Errorf("store indicator: %w", err)
	}
	return m, nil
}

// ListIndicators returns the measurements matching the filter, ordered by
// measurement time when a student is given.
func (s *Store) ListIndicators(filter IndicatorFilter) ([]models.IndicatorMeasurement, error) {
	var prefix []byte
	if filter.StudentID != "" {
		prefix = studentPrefix(filter.StudentID)
	}
	return scanPrefix(s, indicatorsBucket, prefix, filter.match)
}
